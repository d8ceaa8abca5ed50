package world

import (
	"time"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/clock"
)

// Backfill reconciles elapsed offline time in one step. Intervals shorter than the
// offline minimum are skipped; longer than the maximum are clamped. Breeding compares
// against the unclamped end time since incubation is wall-clock based.
func (w *World) Backfill(elapsed time.Duration) Result {
	raw := float64(elapsed) / float64(time.Millisecond)
	minMs := w.cfg.Offline.MinSec * 1000
	maxMs := w.cfg.Offline.MaxSec * 1000
	if raw < minMs {
		return w.ok()
	}
	ms := raw
	if ms > maxMs {
		ms = maxMs
	}
	breedNow := w.nowMs + int64(raw)
	sum := w.integrate(ms, modeBackfill, breedNow)
	w.emit(protocol.EventOfflineProgress, map[string]any{
		"elapsed_ms":         int64(raw),
		"applied_ms":         int64(ms),
		"seeds":              sum.Seeds,
		"surveys_completed":  sum.SurveysCompleted,
		"breeding_completed": sum.BreedingCompleted,
		"forced_unassigned":  sum.ForcedUnassigned,
		"matured":            sum.Matured,
	})
	return w.ok()
}

// ResumeOffline runs the backfill for the time since the last save and stamps the
// open time. Call once after loading.
func (w *World) ResumeOffline() Result {
	now := clock.UnixMs(w.clock.Now())
	elapsed := now - w.lastSaveAtMs
	if w.lastSaveAtMs > 0 {
		w.nowMs = w.lastSaveAtMs
	}
	var r Result
	if elapsed > 0 {
		r = w.Backfill(time.Duration(elapsed) * time.Millisecond)
	} else {
		r = w.ok()
	}
	w.nowMs = now
	w.msCarry = 0
	w.lastOpenAtMs = now
	return r
}
