package world

import (
	"testing"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

func TestApplyDispatchesCommands(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	s := starter(t, w)

	r := w.Apply(protocol.CmdAssign, protocol.CmdArgs{
		Role:       &protocol.RoleRef{Kind: "FORAGER", Biome: "forest", Slot: 0},
		SpecimenID: s.ID,
	})
	mustOK(t, r)
	if s.Location != model.Forager("forest", 0) {
		t.Fatalf("expected forager, got %s", s.Location)
	}
	mustOK(t, w.Apply(protocol.CmdRecall, protocol.CmdArgs{SpecimenID: s.ID}))
	mustOK(t, w.Apply(protocol.CmdSurveyTap, protocol.CmdArgs{Biome: "forest"}))
	mustOK(t, w.Apply(protocol.CmdSetFlag, protocol.CmdArgs{Flag: "seen_intro"}))
}

func TestApplyRejectsBadInput(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	s := starter(t, w)
	cases := []struct {
		cmd  string
		args protocol.CmdArgs
	}{
		{"FLY_AWAY", protocol.CmdArgs{}},
		{protocol.CmdAssign, protocol.CmdArgs{SpecimenID: s.ID}},
		{protocol.CmdAssign, protocol.CmdArgs{Role: &protocol.RoleRef{Kind: "BREEDING"}, SpecimenID: s.ID}},
		{protocol.CmdUnassign, protocol.CmdArgs{Role: &protocol.RoleRef{Kind: "nest"}}},
	}
	for _, c := range cases {
		if r := w.Apply(c.cmd, c.args); r.Code != protocol.ErrBadRequest {
			t.Fatalf("%s %+v: expected %s, got %q", c.cmd, c.args, protocol.ErrBadRequest, r.Code)
		}
	}
	if s.Location != model.Collection() {
		t.Fatalf("rejected commands moved the starter")
	}
}

func TestHandleJoinSendsWelcome(t *testing.T) {
	w, _ := newTestWorld(t, nil)
	resp := make(chan JoinResponse, 1)
	w.handleJoin(JoinRequest{ClientName: "ui", Out: make(chan []byte, 1), Resp: resp})
	jr := <-resp
	if jr.SessionID == "" || jr.Welcome.SessionID != jr.SessionID {
		t.Fatalf("unexpected join response %+v", jr)
	}
	if jr.Welcome.Catalogs.SpeciesDigest == "" || jr.Welcome.TickRateHz != w.cfg.TickRateHz {
		t.Fatalf("welcome missing catalog digests or tick rate")
	}
	if len(jr.Welcome.State.Specimens) != 1 {
		t.Fatalf("welcome state should carry the starter")
	}
}
