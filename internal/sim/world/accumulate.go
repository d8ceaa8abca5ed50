package world

import (
	"math"
	"time"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/survey"
)

type integrationMode uint8

const (
	modeTick integrationMode = iota
	modeBackfill
)

// passSummary is what one integration pass produced.
type passSummary struct {
	Seeds             float64
	SurveysCompleted  int
	BreedingCompleted int
	ForcedUnassigned  int
	Matured           int
}

// Step advances the world by dt of real time and returns the events it produced.
func (w *World) Step(dt time.Duration) []protocol.Event {
	ms := float64(dt) / float64(time.Millisecond)
	if ms > 0 {
		w.integrate(ms, modeTick, 0)
	}
	w.settlePendingCulls()
	return w.drainEvents()
}

// integrate is the one routine behind both Step and Backfill. Every worker's active
// window is computed from its vitality at the start of the interval, so splitting an
// interval into ticks or taking it whole gives the same income, survey progress and
// drain. breedNowMs is only read in backfill mode.
func (w *World) integrate(ms float64, mode integrationMode, breedNowMs int64) passSummary {
	var sum passSummary
	w.advanceClock(ms)
	w.fresh = map[string]bool{}
	defer func() { w.fresh = nil }()

	// 1. Active windows and forager income.
	active := map[string]float64{}
	var workers []*model.Specimen
	income := 0.0
	for _, b := range w.biomes {
		if !b.Unlocked {
			continue
		}
		for i := range b.Foragers {
			f := &b.Foragers[i]
			if !f.Unlocked || f.Occupant == "" {
				continue
			}
			s := w.resolveWorker(f.Occupant, model.Forager(b.ID, i))
			if s == nil {
				continue
			}
			a := w.vit.ActiveMs(s.Vitality, s.Distinction, ms)
			active[s.ID] = a
			workers = append(workers, s)
			income += w.baseIncome(s.Distinction) * a / 1000
		}
		if b.Survey.Occupant != "" {
			if s := w.resolveWorker(b.Survey.Occupant, model.Surveyor(b.ID)); s != nil {
				active[s.ID] = w.vit.ActiveMs(s.Vitality, s.Distinction, ms)
				workers = append(workers, s)
			}
		}
	}

	// 2. Surveys: only biomes with an assigned surveyor accrue.
	for _, b := range w.biomes {
		if !b.Unlocked || b.Survey.Occupant == "" {
			continue
		}
		sv := w.specimens[b.Survey.Occupant]
		if sv == nil {
			continue
		}
		def := w.catalogs.Biomes.ByID[b.ID]
		hs := b.HighestUnlockedForager()
		add := survey.Contribution(def.SurveyRates, hs, b.ID, birdOf(sv), active[sv.ID])
		for i := range b.Foragers {
			f := &b.Foragers[i]
			if !f.Unlocked || f.Occupant == "" {
				continue
			}
			if s := w.specimens[f.Occupant]; s != nil {
				add += survey.Contribution(def.SurveyRates, hs, b.ID, birdOf(s), active[s.ID])
			}
		}
		b.Survey.Progress += add
		b.Survey.UpdatedAtMs = w.nowMs
		if survey.Complete(b.Survey.Progress, def.SurveyCost) {
			w.completeSurvey(b)
			sum.SurveysCompleted++
		}
	}

	// 3. Drain workers over the full interval.
	var exhausted []*model.Specimen
	for _, s := range workers {
		s.Vitality = w.vit.Drain(s.Vitality, s.Distinction, ms)
		if s.Vitality > 0 {
			continue
		}
		if mode == modeBackfill {
			exhausted = append(exhausted, s)
			continue
		}
		if !w.exhaustedNotified[s.ID] {
			w.exhaustedNotified[s.ID] = true
			w.emit(protocol.EventBirdExhausted, map[string]any{"specimen_id": s.ID, "location": s.Location.String()})
		}
	}
	for _, s := range exhausted {
		from := s.Location
		if w.specimens[s.ID] == nil || !from.Kind.Working() {
			continue
		}
		w.vacate(s)
		sum.ForcedUnassigned++
		w.emit(protocol.EventForcedUnassign, map[string]any{"specimen_id": s.ID, "from": from.String()})
	}

	// 4. Breeding.
	sum.BreedingCompleted = w.advanceBreeding(ms, mode, breedNowMs)

	// 5. Perch restore.
	for i := range w.perches {
		p := &w.perches[i]
		if !p.Unlocked || p.Occupant == "" {
			continue
		}
		s := w.specimens[p.Occupant]
		if s == nil {
			w.anomaly("perch %d references missing specimen %s", i, p.Occupant)
			continue
		}
		s.Vitality = w.vit.Restore(s.Vitality, s.Distinction, ms)
	}

	// 6. Maturation.
	sum.Matured = w.mature(ms)

	// 7. One ledger credit.
	w.earn(income)
	sum.Seeds = income
	return sum
}

// advanceClock moves simulation time forward, carrying sub-millisecond remainders so
// 60 Hz ticks do not drift from wall time.
func (w *World) advanceClock(ms float64) {
	total := w.msCarry + ms
	whole := math.Floor(total)
	w.nowMs += int64(whole)
	w.msCarry = total - whole
}

// resolveWorker re-resolves an occupant through the registry.
func (w *World) resolveWorker(id string, role model.Location) *model.Specimen {
	s := w.specimens[id]
	if s == nil {
		w.anomaly("%s references missing specimen %s", role, id)
		return nil
	}
	if s.Location != role {
		w.anomaly("%s references %s which is at %s", role, id, s.Location)
		return nil
	}
	return s
}

func (w *World) mature(ms float64) int {
	n := 0
	for _, id := range w.sortedSpecimenIDs() {
		s := w.specimens[id]
		if s.IsMature || s.Location.Kind == model.LocBreeding || w.fresh[id] {
			continue
		}
		need := w.cfg.Maturation.MatureSec[tuning.TierIndex(s.Distinction)]
		s.MaturityProgress += 100 / need * ms / 1000
		if s.MaturityProgress >= 100 {
			s.MaturityProgress = 100
			s.IsMature = true
			n++
			w.emit(protocol.EventMatured, map[string]any{"specimen_id": s.ID})
		}
	}
	return n
}

func (w *World) baseIncome(distinction int) float64 {
	return w.cfg.Income.BasePerSec[tuning.TierIndex(distinction)]
}

func birdOf(s *model.Specimen) survey.Bird {
	return survey.Bird{Distinction: s.Distinction, Biome: s.Biome}
}
