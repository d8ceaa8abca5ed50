package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/kernel/model"
)

type commandHandler func(*World, protocol.CmdArgs) Result

var commandDispatch = map[string]commandHandler{
	protocol.CmdAssign:   handleAssign,
	protocol.CmdUnassign: handleUnassign,
	protocol.CmdRecall: func(w *World, a protocol.CmdArgs) Result {
		return w.Recall(a.SpecimenID)
	},
	protocol.CmdUnlockBiome: func(w *World, a protocol.CmdArgs) Result {
		return w.UnlockBiome(a.Biome)
	},
	protocol.CmdUnlockForagerSlot: func(w *World, a protocol.CmdArgs) Result {
		return w.UnlockForagerSlot(a.Biome, a.Slot)
	},
	protocol.CmdUnlockPerch: func(w *World, a protocol.CmdArgs) Result {
		return w.UnlockPerch(a.Slot)
	},
	protocol.CmdUnlockBreeding: func(w *World, a protocol.CmdArgs) Result {
		return w.UnlockBreedingProgram(a.Program)
	},
	protocol.CmdStartBreeding: func(w *World, a protocol.CmdArgs) Result {
		return w.StartBreeding(a.Program, a.Parent1, a.Parent2)
	},
	protocol.CmdIncubate: func(w *World, a protocol.CmdArgs) Result {
		return w.Incubate(a.Program)
	},
	protocol.CmdSurveyTap: func(w *World, a protocol.CmdArgs) Result {
		return w.SurveyTap(a.Biome)
	},
	protocol.CmdRestoreTap: func(w *World, a protocol.CmdArgs) Result {
		return w.RestoreTap(a.Slot)
	},
	protocol.CmdPrestige: func(w *World, _ protocol.CmdArgs) Result {
		return w.Prestige()
	},
	protocol.CmdSetFlag: func(w *World, a protocol.CmdArgs) Result {
		return w.SetFlag(a.Flag)
	},
}

// Apply runs one named command. Unknown commands are rejected without touching state.
func (w *World) Apply(cmd string, args protocol.CmdArgs) Result {
	h, ok := commandDispatch[cmd]
	if !ok {
		return w.reject(protocol.ErrBadRequest, "unknown command %q", cmd)
	}
	return h(w, args)
}

func handleAssign(w *World, a protocol.CmdArgs) Result {
	role, ok := roleFromRef(a.Role)
	if !ok {
		return w.reject(protocol.ErrBadRequest, "missing or invalid role")
	}
	return w.Assign(role, a.SpecimenID)
}

func handleUnassign(w *World, a protocol.CmdArgs) Result {
	role, ok := roleFromRef(a.Role)
	if !ok {
		return w.reject(protocol.ErrBadRequest, "missing or invalid role")
	}
	return w.Unassign(role)
}

func roleFromRef(r *protocol.RoleRef) (model.Location, bool) {
	if r == nil {
		return model.Location{}, false
	}
	kind, ok := model.ParseLocationKind(r.Kind)
	if !ok || kind == model.LocBreeding {
		return model.Location{}, false
	}
	return model.Location{Kind: kind, Biome: r.Biome, Slot: r.Slot}.Normalize(), true
}
