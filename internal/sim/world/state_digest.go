package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"sanctuary.game/internal/sim/world/io/digestcodec"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// StateDigest hashes the simulation state with floats quantized to 1e-6. Two worlds
// with the same digest agree on every persisted field.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteQuantized(h, &tmp, w.ledger.Seeds)
	digestcodec.WriteQuantized(h, &tmp, w.ledger.TotalSeedsEarned)
	digestcodec.WriteSortedStrings(h, w.prestige.Crystals)
	digestWriteU64(h, &tmp, uint64(w.prestige.Count))

	for _, b := range w.biomes {
		h.Write([]byte(b.ID))
		h.Write([]byte{digestcodec.BoolByte(b.Unlocked)})
		for _, f := range b.Foragers {
			h.Write([]byte{digestcodec.BoolByte(f.Unlocked)})
			h.Write([]byte(f.Occupant))
			h.Write([]byte{0})
		}
		digestcodec.WriteQuantized(h, &tmp, b.Survey.Progress)
		h.Write([]byte(b.Survey.Occupant))
		h.Write([]byte{0})
	}
	for _, p := range w.perches {
		h.Write([]byte{digestcodec.BoolByte(p.Unlocked)})
		h.Write([]byte(p.Occupant))
		h.Write([]byte{0})
	}
	for _, p := range w.programs {
		h.Write([]byte{digestcodec.BoolByte(p.Unlocked), digestcodec.BoolByte(p.Active)})
		h.Write([]byte(p.Parent1 + "\x00" + p.Parent2 + "\x00"))
		digestcodec.WriteQuantized(h, &tmp, digestcodec.Clamp(p.Progress, 0, 100))
		digestcodec.WriteQuantized(h, &tmp, p.DurationMs)
	}
	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		h.Write([]byte(s.ID + "\x00" + s.Species + "\x00" + s.Biome + "\x00" + s.Location.String() + "\x00"))
		digestWriteU64(h, &tmp, uint64(s.Distinction))
		for _, tr := range s.Traits {
			h.Write([]byte(tr))
			h.Write([]byte{0})
		}
		digestcodec.WriteQuantized(h, &tmp, s.Vitality)
		digestcodec.WriteQuantized(h, &tmp, s.MaturityProgress)
		h.Write([]byte{digestcodec.BoolByte(s.IsMature), digestcodec.BoolByte(s.IsLegendary)})
	}
	digestcodec.WriteSortedStrings(h, w.catalogued)
	digestcodec.WriteSortedStrings(h, w.legendaries)
	digestcodec.WriteSortedStrings(h, w.Milestones())
	digestcodec.WriteSortedNonZeroIntMap(h, &tmp, w.pendingCulls)

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}
