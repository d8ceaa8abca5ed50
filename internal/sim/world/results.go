package world

import (
	"fmt"

	"sanctuary.game/internal/protocol"
)

// Result is returned by every command. Code is empty on success and one of the
// protocol error codes otherwise. Events lists everything the command caused.
type Result struct {
	Code    string
	Message string
	Events  []protocol.Event
}

func (r Result) OK() bool { return r.Code == "" }

func (r Result) Error() string {
	if r.OK() {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// fail is a validation rejection.
func fail(code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

// finish closes the operation in progress: deferred culls are settled, events are
// drained to the event logger and attached to r.
func (w *World) finish(r Result) Result {
	w.settlePendingCulls()
	evs := w.drainEvents()
	r.Events = append(r.Events, evs...)
	return r
}

func (w *World) ok() Result { return w.finish(Result{}) }

// reject returns a validation failure. Rejected commands leave state untouched.
func (w *World) reject(code, format string, args ...any) Result {
	return w.finish(fail(code, format, args...))
}

// integrity logs a data integrity defect and returns E_INTEGRITY.
func (w *World) integrity(format string, args ...any) Result {
	w.anomaly(format, args...)
	return w.finish(fail(protocol.ErrIntegrity, format, args...))
}
