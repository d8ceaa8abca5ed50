package digestcodec

import (
	"encoding/binary"
	"math"
	"sort"
)

type mapWriter interface {
	Write(p []byte) (n int, err error)
}

// WriteSortedNonZeroIntMap emits a deterministic key-sorted map encoding,
// skipping zero values to keep digest payload stable and compact.
func WriteSortedNonZeroIntMap(w mapWriter, tmp *[8]byte, m map[int]int) {
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	for _, k := range keys {
		binary.LittleEndian.PutUint64(tmp[:], uint64(k))
		w.Write(tmp[:])
		binary.LittleEndian.PutUint64(tmp[:], uint64(m[k]))
		w.Write(tmp[:])
	}
}

// WriteSortedStrings emits a set of strings in sorted order, NUL separated.
func WriteSortedStrings(w mapWriter, set []string) {
	keys := append([]string(nil), set...)
	sort.Strings(keys)
	for _, k := range keys {
		w.Write([]byte(k))
		w.Write([]byte{0})
	}
}

// WriteQuantized writes x rounded to 1e-6 so digests tolerate float noise from
// different integration step sizes.
func WriteQuantized(w mapWriter, tmp *[8]byte, x float64) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(int64(math.Round(x*1e6))))
	w.Write(tmp[:])
}
