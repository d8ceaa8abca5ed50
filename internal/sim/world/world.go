package world

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync/atomic"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/clock"
	"sanctuary.game/internal/sim/rng"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world/kernel/model"
	"sanctuary.game/internal/sim/world/logic/ids"
	"sanctuary.game/internal/sim/world/logic/vitality"
)

// Counts of fixed-size tables.
const (
	PerchCount           = 5
	BreedingProgramCount = 3
)

// MilestoneStarterUnrestricted lifts the tier-1-only rule of the starting biome.
const MilestoneStarterUnrestricted = "starter_unrestricted"

type WorldConfig struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Clock    clock.Clock
	RNG      rng.Source
	Logger   *log.Logger
}

// World is the explicit state container of one sanctuary. All state must be accessed
// only from one goroutine: the caller of the command methods, or the Run loop.
type World struct {
	cfg      tuning.Tuning
	catalogs *catalogs.Catalogs
	clock    clock.Clock
	rng      rng.Source
	logger   *log.Logger
	vit      vitality.Table

	nowMs   int64
	msCarry float64

	ledger    model.Ledger
	prestige  model.Prestige
	specimens map[string]*model.Specimen
	biomes    []*model.Biome
	perches   [PerchCount]model.Perch
	programs  [BreedingProgramCount]model.BreedingProgram

	catalogued   []string
	legendaries  []string
	milestones   map[string]bool
	pendingCulls map[int]int

	// Specimens whose creation was deferred past the cap; queued culls never take them.
	capExempt map[string]bool

	// Real-time exhaustion is reported once per stint in a working role.
	exhaustedNotified map[string]bool

	lastSaveAtMs int64
	lastOpenAtMs int64

	nextSpecimenNum atomic.Uint64
	nextSessionNum  atomic.Uint64
	anomalies       atomic.Uint64

	// Events accumulated by the operation in progress.
	pending []protocol.Event

	// Specimens created or returned during the current integration pass; they do not
	// mature for time that elapsed before they existed.
	fresh map[string]bool

	// Optional sink for every emitted event (may be nil).
	eventLogger EventLogger

	metrics metricsBox

	// Runtime loop plumbing; see runtime_loop.go.
	inbox   chan CommandRequest
	join    chan JoinRequest
	leave   chan string
	saveReq chan saveRequest
	stop    chan struct{}
	clients map[string]*clientState
}

// EventLogger receives every event the world emits, in emission order.
type EventLogger interface {
	WriteEvents(evs []protocol.Event) error
}

// New builds a world in the starting state.
func New(cfg WorldConfig) (*World, error) {
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("world: catalogs required")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.RNG == nil {
		cfg.RNG = rng.New(uint64(cfg.Clock.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:      cfg.Tuning,
		catalogs: cfg.Catalogs,
		clock:    cfg.Clock,
		rng:      cfg.RNG,
		logger:   cfg.Logger,
		vit:      vitality.FromTuning(cfg.Tuning.Vitality),
		inbox:    make(chan CommandRequest, 256),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		saveReq:  make(chan saveRequest, 4),
		stop:     make(chan struct{}),
		clients:  map[string]*clientState{},
	}
	w.nowMs = clock.UnixMs(w.clock.Now())
	w.resetToStart()
	return w, nil
}

// resetToStart installs the new-game state: seeds, one tier-1 starter bird, the first
// biome with its first forager slot, and the first perch.
func (w *World) resetToStart() {
	w.ledger = model.Ledger{Seeds: w.cfg.StartingSeeds}
	w.prestige = model.Prestige{}
	w.specimens = map[string]*model.Specimen{}
	w.biomes = make([]*model.Biome, 0, len(w.catalogs.Biomes.Order))
	for _, id := range w.catalogs.Biomes.Order {
		w.biomes = append(w.biomes, &model.Biome{ID: id})
	}
	w.perches = [PerchCount]model.Perch{}
	w.programs = [BreedingProgramCount]model.BreedingProgram{}
	w.catalogued = nil
	w.legendaries = nil
	w.milestones = map[string]bool{}
	w.pendingCulls = map[int]int{}
	w.capExempt = map[string]bool{}
	w.exhaustedNotified = map[string]bool{}
	w.nextSpecimenNum.Store(0)

	first := w.biomes[0]
	first.Unlocked = true
	first.Foragers[0].Unlocked = true
	w.perches[0].Unlocked = true

	w.lastSaveAtMs = w.nowMs
	w.lastOpenAtMs = w.nowMs

	starter := w.catalogs.SpeciesFor(first.ID, 1)
	if len(starter) == 0 {
		w.logger.Printf("warn: no tier-1 species for %s; starting without a bird", first.ID)
		return
	}
	w.register(w.newSpecimen(starter[0].Name, 1, first.ID, w.spawnTraits(1)))
	w.pending = nil
}

func (w *World) SetEventLogger(l EventLogger) { w.eventLogger = l }

func (w *World) Tuning() tuning.Tuning         { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs  { return w.catalogs }
func (w *World) NowMs() int64                  { return w.nowMs }
func (w *World) Anomalies() uint64             { return w.anomalies.Load() }
func (w *World) LastSaveAtMs() int64           { return w.lastSaveAtMs }
func (w *World) LastOpenAtMs() int64           { return w.lastOpenAtMs }
func (w *World) MarkSaved(atMs int64)          { w.lastSaveAtMs = atMs }
func (w *World) VitalityTable() vitality.Table { return w.vit }

func (w *World) newSpecimenID() string {
	return ids.SpecimenID(w.nextSpecimenNum.Add(1))
}

func (w *World) biome(id string) *model.Biome {
	for _, b := range w.biomes {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (w *World) biomeIndex(id string) int {
	for i, b := range w.biomes {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// sortedSpecimenIDs gives deterministic iteration over the registry.
func (w *World) sortedSpecimenIDs() []string {
	out := make([]string, 0, len(w.specimens))
	for id := range w.specimens {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (w *World) anomaly(format string, args ...any) {
	w.anomalies.Add(1)
	w.logger.Printf("anomaly: "+format, args...)
}

func (w *World) warn(format string, args ...any) {
	w.logger.Printf("warn: "+format, args...)
}
