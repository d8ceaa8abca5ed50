package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"

	// Rule layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoResource   = "E_NO_RESOURCE"
	ErrLocked       = "E_LOCKED"
	ErrExhausted    = "E_EXHAUSTED"
	ErrImmature     = "E_IMMATURE"
	ErrConflict     = "E_CONFLICT"
	ErrNotFound     = "E_NOT_FOUND"
	ErrPrecondition = "E_PRECONDITION"

	// Data integrity defect: a prior bug left the state inconsistent.
	ErrIntegrity = "E_INTEGRITY"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRateLimit:       {},
	ErrBadRequest:      {},
	ErrNoResource:      {},
	ErrLocked:          {},
	ErrExhausted:       {},
	ErrImmature:        {},
	ErrConflict:        {},
	ErrNotFound:        {},
	ErrPrecondition:    {},
	ErrIntegrity:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
