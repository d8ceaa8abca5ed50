package main

import (
	"testing"

	"sanctuary.game/internal/protocol"
)

func TestDecide(t *testing.T) {
	lockedSlot := protocol.BiomeView{ID: "forest", Unlocked: true, Foragers: []protocol.ForagerView{{Unlocked: true, Occupant: "B1"}, {}, {}}, Surveyor: "B9"}
	freeSlot := protocol.BiomeView{ID: "forest", Unlocked: true, Foragers: []protocol.ForagerView{{Unlocked: true}, {}, {}}}
	perches := []protocol.PerchView{{Unlocked: true}}

	cases := []struct {
		name string
		v    protocol.StateView
		cmd  string
		role string
	}{
		{
			name: "rest exhausted worker",
			v: protocol.StateView{Biomes: []protocol.BiomeView{lockedSlot}, Perches: perches,
				Specimens: []protocol.SpecimenView{{ID: "B1", Location: "forager(forest,0)", Vitality: 0, Capacity: 100}}},
			cmd: protocol.CmdAssign, role: "PERCH",
		},
		{
			name: "rested bird goes back to work",
			v: protocol.StateView{Biomes: []protocol.BiomeView{freeSlot}, Perches: []protocol.PerchView{{Unlocked: true, Occupant: "B1"}},
				Specimens: []protocol.SpecimenView{{ID: "B1", Location: "perch(0)", Vitality: 100, Capacity: 100}}},
			cmd: protocol.CmdAssign, role: "FORAGER",
		},
		{
			name: "idle bird forages",
			v: protocol.StateView{Biomes: []protocol.BiomeView{freeSlot}, Perches: perches,
				Specimens: []protocol.SpecimenView{{ID: "B2", Location: "collection", Vitality: 50, Capacity: 100}}},
			cmd: protocol.CmdAssign, role: "FORAGER",
		},
		{
			name: "buy a slot when nothing else to do",
			v: protocol.StateView{Biomes: []protocol.BiomeView{lockedSlot}, Perches: perches,
				Specimens: []protocol.SpecimenView{{ID: "B1", Location: "forager(forest,0)", Vitality: 50, Capacity: 100}}},
			cmd: protocol.CmdUnlockForagerSlot,
		},
	}
	for _, tc := range cases {
		b := &bot{}
		got := b.decide(tc.v)
		if got == nil {
			t.Fatalf("%s: no command", tc.name)
		}
		if got.Cmd != tc.cmd {
			t.Fatalf("%s: cmd=%s want %s", tc.name, got.Cmd, tc.cmd)
		}
		if tc.role != "" && (got.Args.Role == nil || got.Args.Role.Kind != tc.role) {
			t.Fatalf("%s: role=%+v want %s", tc.name, got.Args.Role, tc.role)
		}
		if got.ReqID != "bot_1" || got.ProtocolVersion != protocol.Version {
			t.Fatalf("%s: envelope %+v", tc.name, got)
		}
	}
}

func TestDecideNothingToDo(t *testing.T) {
	full := protocol.BiomeView{ID: "forest", Unlocked: true, Surveyor: "B2", Foragers: []protocol.ForagerView{{Unlocked: true, Occupant: "B1"}}}
	v := protocol.StateView{Biomes: []protocol.BiomeView{full},
		Specimens: []protocol.SpecimenView{{ID: "B1", Location: "forager(forest,0)", Vitality: 10, Capacity: 100}}}
	if cmd := (&bot{}).decide(v); cmd != nil {
		t.Fatalf("expected no command, got %+v", cmd)
	}
}
