package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type              string   `json:"type"`
	ProtocolVersion   string   `json:"protocol_version"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	ClientName        string   `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	TickRateHz      int            `json:"tick_rate_hz"`
	Catalogs        CatalogDigests `json:"catalogs"`
	State           StateView      `json:"state"`
}

type CatalogDigests struct {
	BiomesDigest      string `json:"biomes_digest"`
	SpeciesDigest     string `json:"species_digest"`
	TraitsDigest      string `json:"traits_digest"`
	LegendariesDigest string `json:"legendaries_digest"`
	TuningDigest      string `json:"tuning_digest,omitempty"`
}

// Command names carried by CMD.
const (
	CmdAssign            = "ASSIGN"
	CmdUnassign          = "UNASSIGN"
	CmdRecall            = "RECALL"
	CmdUnlockBiome       = "UNLOCK_BIOME"
	CmdUnlockForagerSlot = "UNLOCK_FORAGER_SLOT"
	CmdUnlockPerch       = "UNLOCK_PERCH"
	CmdUnlockBreeding    = "UNLOCK_BREEDING"
	CmdStartBreeding     = "START_BREEDING"
	CmdIncubate          = "INCUBATE"
	CmdSurveyTap         = "SURVEY_TAP"
	CmdRestoreTap        = "RESTORE_TAP"
	CmdPrestige          = "PRESTIGE"
	CmdSetFlag           = "SET_FLAG"
)

// CMD (client -> server)
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Cmd             string  `json:"cmd"`
	Args            CmdArgs `json:"args"`
}

// CmdArgs is the union of command arguments; each command reads the fields it needs.
type CmdArgs struct {
	Role       *RoleRef `json:"role,omitempty"`
	SpecimenID string   `json:"specimen_id,omitempty"`
	Biome      string   `json:"biome,omitempty"`
	Slot       int      `json:"slot,omitempty"`
	Program    int      `json:"program,omitempty"`
	Parent1    string   `json:"parent1,omitempty"`
	Parent2    string   `json:"parent2,omitempty"`
	Flag       string   `json:"flag,omitempty"`
}

// RoleRef names an assignable role. Kind is one of COLLECTION, FORAGER, SURVEYOR, PERCH.
type RoleRef struct {
	Kind  string `json:"kind"`
	Biome string `json:"biome,omitempty"`
	Slot  int    `json:"slot,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	OK              bool    `json:"ok"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
	Events          []Event `json:"events,omitempty"`
}

// EVENTS (server -> client): events produced by ticks rather than commands.
type EventsMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Events          []Event `json:"events"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	AtMs            int64     `json:"at_ms"`
	State           StateView `json:"state"`
}
