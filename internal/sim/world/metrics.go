package world

import (
	"sync/atomic"

	"sanctuary.game/internal/sim/world/kernel/model"
)

// WorldMetrics is published by the runtime loop after every tick and may be read from
// any goroutine.
type WorldMetrics struct {
	NowMs int64 `json:"now_ms"`

	Seeds            float64 `json:"seeds"`
	TotalSeedsEarned float64 `json:"total_seeds_earned"`
	IncomePerSec     float64 `json:"income_per_sec"`
	PrestigeCount    int     `json:"prestige_count"`

	Specimens    int `json:"specimens"`
	Working      int `json:"working"`
	Breeding     int `json:"breeding"`
	PendingCulls int `json:"pending_culls"`

	Clients     int         `json:"clients"`
	QueueDepths QueueDepths `json:"queue_depths"`
	StepMS      float64     `json:"step_ms"`

	Anomalies uint64 `json:"anomalies"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

type metricsBox struct{ v atomic.Value }

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, ok := w.metrics.v.Load().(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(stepMS float64) {
	m := WorldMetrics{
		NowMs:            w.nowMs,
		Seeds:            w.ledger.Seeds,
		TotalSeedsEarned: w.ledger.TotalSeedsEarned,
		IncomePerSec:     w.IncomePerSecond(),
		PrestigeCount:    w.prestige.Count,
		Specimens:        len(w.specimens),
		Clients:          len(w.clients),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:    stepMS,
		Anomalies: w.anomalies.Load(),
	}
	for _, s := range w.specimens {
		switch {
		case s.Location.Kind.Working():
			m.Working++
		case s.Location.Kind == model.LocBreeding:
			m.Breeding++
		}
	}
	for _, n := range w.pendingCulls {
		m.PendingCulls += n
	}
	w.metrics.v.Store(m)
}
