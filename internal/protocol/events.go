package protocol

// Event types emitted by the simulation.
const (
	EventSurveyCompleted   = "SURVEY_COMPLETED"
	EventSpecimenCreated   = "SPECIMEN_CREATED"
	EventSpeciesDiscovered = "SPECIES_DISCOVERED"
	EventBreedingStarted   = "BREEDING_STARTED"
	EventBreedingCompleted = "BREEDING_COMPLETED"
	EventLegendaryHatched  = "LEGENDARY_HATCHED"
	EventBirdExhausted     = "BIRD_EXHAUSTED"
	EventForcedUnassign    = "FORCED_UNASSIGN"
	EventRarityCapCulled   = "RARITY_CAP_CULLED"
	EventRarityCapDeferred = "RARITY_CAP_DEFERRED"
	EventMatured           = "MATURED"
	EventPrestige          = "PRESTIGE"
	EventCrystalAwarded    = "CRYSTAL_AWARDED"
	EventOfflineProgress   = "OFFLINE_PROGRESS"
)

// Event is a notification for the UI layer. Data keys depend on Type.
type Event struct {
	Type string         `json:"type"`
	AtMs int64          `json:"at_ms"`
	Data map[string]any `json:"data,omitempty"`
}

// Warning reports whether the event surfaces a warning-level condition.
func (e Event) Warning() bool {
	return e.Type == EventRarityCapDeferred
}
