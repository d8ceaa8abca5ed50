package digestcodec

import (
	"bytes"
	"testing"
)

func TestWriteSortedNonZeroIntMapIsOrderIndependent(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteSortedNonZeroIntMap(&a, &tmp, map[int]int{3: 1, 1: 2, 2: 0})
	WriteSortedNonZeroIntMap(&b, &tmp, map[int]int{1: 2, 3: 1})
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("expected identical encodings")
	}
}

func TestWriteQuantizedAbsorbsNoise(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteQuantized(&a, &tmp, 99.8)
	WriteQuantized(&b, &tmp, 99.80000000001)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("expected identical encodings")
	}
}
