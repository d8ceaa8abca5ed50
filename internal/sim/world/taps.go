package world

import (
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world/logic/survey"
)

// SurveyTap adds a fixed share of the biome's survey cost. It completes the survey like
// passive accrual does, rolling around the surveyor or tier 1 when there is none.
func (w *World) SurveyTap(biome string) Result {
	b := w.biome(biome)
	if b == nil {
		return w.reject(protocol.ErrNotFound, "unknown biome %s", biome)
	}
	if !b.Unlocked {
		return w.reject(protocol.ErrLocked, "biome %s is locked", biome)
	}
	def := w.catalogs.Biomes.ByID[biome]
	b.Survey.Progress += def.SurveyCost * w.cfg.Taps.SurveyFraction
	b.Survey.UpdatedAtMs = w.nowMs
	if survey.Complete(b.Survey.Progress, def.SurveyCost) {
		w.completeSurvey(b)
	}
	return w.ok()
}

// RestoreTap instantly restores a share of capacity to the bird on perch i, then starts
// the perch cooldown.
func (w *World) RestoreTap(i int) Result {
	if i < 0 || i >= len(w.perches) {
		return w.reject(protocol.ErrBadRequest, "perch %d out of range", i)
	}
	p := &w.perches[i]
	if !p.Unlocked {
		return w.reject(protocol.ErrLocked, "perch %d is locked", i)
	}
	if p.Occupant == "" {
		return w.reject(protocol.ErrNotFound, "perch %d is empty", i)
	}
	if w.nowMs < p.CooldownUntilMs {
		return w.reject(protocol.ErrConflict, "perch %d is cooling down for %d ms", i, p.CooldownUntilMs-w.nowMs)
	}
	s := w.specimens[p.Occupant]
	if s == nil {
		return w.integrity("perch %d references missing specimen %s", i, p.Occupant)
	}
	capacity := w.vit.Capacity(s.Distinction)
	if s.Vitality >= capacity {
		return w.reject(protocol.ErrConflict, "specimen %s is already fully rested", s.ID)
	}
	s.Vitality = w.vit.Clamp(s.Vitality+capacity*w.cfg.Taps.RestoreFraction, s.Distinction)
	p.CooldownUntilMs = w.nowMs + int64(w.cfg.Taps.RestoreCooldownSec*1000)
	return w.ok()
}
