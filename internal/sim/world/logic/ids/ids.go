package ids

import (
	"fmt"
	"strconv"
	"strings"
)

// SpecimenPrefix marks registry ids; legendaries share the sequence.
const SpecimenPrefix = "B"

func SpecimenID(n uint64) string {
	return fmt.Sprintf("%s%06d", SpecimenPrefix, n)
}

func MaxU64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}

func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseSpecimenNum recovers the counter value of a specimen id.
func ParseSpecimenNum(id string) (uint64, bool) {
	return ParseUintAfterPrefix(SpecimenPrefix, id)
}

// NextAfter returns the first counter value not used by any of ids. Saves written by
// older builds may carry arbitrary ids; those are ignored.
func NextAfter(existing []string) uint64 {
	var hi uint64
	for _, id := range existing {
		if n, ok := ParseSpecimenNum(id); ok {
			hi = MaxU64(hi, n)
		}
	}
	return hi
}
