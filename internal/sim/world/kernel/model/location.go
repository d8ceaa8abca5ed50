package model

import "fmt"

type LocationKind uint8

const (
	LocCollection LocationKind = iota
	LocForager
	LocSurveyor
	LocPerch
	LocBreeding
)

func (k LocationKind) String() string {
	switch k {
	case LocCollection:
		return "COLLECTION"
	case LocForager:
		return "FORAGER"
	case LocSurveyor:
		return "SURVEYOR"
	case LocPerch:
		return "PERCH"
	case LocBreeding:
		return "BREEDING"
	default:
		return fmt.Sprintf("LocationKind(%d)", uint8(k))
	}
}

// ParseLocationKind is the inverse of String.
func ParseLocationKind(s string) (LocationKind, bool) {
	switch s {
	case "COLLECTION":
		return LocCollection, true
	case "FORAGER":
		return LocForager, true
	case "SURVEYOR":
		return LocSurveyor, true
	case "PERCH":
		return LocPerch, true
	case "BREEDING":
		return LocBreeding, true
	}
	return 0, false
}

// Working roles drain vitality and earn.
func (k LocationKind) Working() bool {
	return k == LocForager || k == LocSurveyor
}

// Location is where a specimen currently is. Which fields are meaningful depends on Kind:
//
//	Collection: none
//	Forager:    Biome, Slot (forager slot index)
//	Surveyor:   Biome
//	Perch:      Slot (perch index)
//	Breeding:   Slot (program index)
type Location struct {
	Kind  LocationKind
	Biome string
	Slot  int
}

func Collection() Location                    { return Location{Kind: LocCollection} }
func Forager(biome string, slot int) Location { return Location{Kind: LocForager, Biome: biome, Slot: slot} }
func Surveyor(biome string) Location          { return Location{Kind: LocSurveyor, Biome: biome} }
func Perched(slot int) Location               { return Location{Kind: LocPerch, Slot: slot} }
func Breeding(program int) Location           { return Location{Kind: LocBreeding, Slot: program} }

// Normalize zeroes the fields Kind does not use so locations compare with ==.
func (l Location) Normalize() Location {
	switch l.Kind {
	case LocCollection:
		return Location{Kind: LocCollection}
	case LocSurveyor:
		return Location{Kind: LocSurveyor, Biome: l.Biome}
	case LocPerch, LocBreeding:
		return Location{Kind: l.Kind, Slot: l.Slot}
	}
	return l
}

func (l Location) String() string {
	switch l.Kind {
	case LocCollection:
		return "collection"
	case LocForager:
		return fmt.Sprintf("forager(%s,%d)", l.Biome, l.Slot)
	case LocSurveyor:
		return fmt.Sprintf("surveyor(%s)", l.Biome)
	case LocPerch:
		return fmt.Sprintf("perch(%d)", l.Slot)
	case LocBreeding:
		return fmt.Sprintf("breeding(%d)", l.Slot)
	}
	return l.Kind.String()
}
