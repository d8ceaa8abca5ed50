package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Version gates loading: any other header version discards the save.
const Version = "sanctuary/1"

// CurrentRevision is the document revision written by this build. Older revisions of the
// same version are upgraded by internal/persistence/migrate.
const CurrentRevision = 3

var ErrVersionMismatch = errors.New("snapshot: version mismatch")

type Header struct {
	Version   string `json:"version"`
	Revision  int    `json:"revision"`
	SavedAtMs int64  `json:"saved_at_ms"`
}

type SaveV1 struct {
	Header Header `json:"-"`

	Seeds            float64  `json:"seeds"`
	TotalSeedsEarned float64  `json:"total_seeds_earned"`
	Crystals         []string `json:"crystals"`
	PrestigeCount    int      `json:"prestige_count"`

	Biomes           []BiomeV1    `json:"biomes"`
	Perches          []PerchV1    `json:"perches"`
	BreedingPrograms []BreedingV1 `json:"breeding_programs"`
	Specimens        []SpecimenV1 `json:"specimens"`

	CataloguedSpecies   []string       `json:"catalogued_species"`
	LegendariesAcquired []string       `json:"legendaries_acquired"`
	Milestones          []string       `json:"milestones"`
	PendingCulls        map[string]int `json:"pending_culls,omitempty"`

	LastSaveTime int64 `json:"last_save_time"`
	LastOpenTime int64 `json:"last_open_time"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextSpecimen uint64 `json:"next_specimen"`
	RNGState     []byte `json:"rng_state,omitempty"`
}

type BiomeV1 struct {
	ID       string      `json:"id"`
	Unlocked bool        `json:"unlocked"`
	Foragers []ForagerV1 `json:"foragers"`
	Survey   SurveyV1    `json:"survey"`
}

type ForagerV1 struct {
	Unlocked   bool   `json:"unlocked"`
	Occupant   string `json:"occupant,omitempty"`
	AssignedAt int64  `json:"assigned_at,omitempty"`
}

type SurveyV1 struct {
	Progress  float64 `json:"progress"`
	Occupant  string  `json:"occupant,omitempty"`
	UpdatedAt int64   `json:"updated_at,omitempty"`
}

type PerchV1 struct {
	Unlocked      bool   `json:"unlocked"`
	Occupant      string `json:"occupant,omitempty"`
	CooldownUntil int64  `json:"cooldown_until"`
}

type BreedingV1 struct {
	Unlocked          bool         `json:"unlocked"`
	Active            bool         `json:"active"`
	Parent1           string       `json:"parent1,omitempty"`
	Parent2           string       `json:"parent2,omitempty"`
	Progress          float64      `json:"progress"`
	StartTime         int64        `json:"start_time,omitempty"`
	EstimatedDuration float64      `json:"estimated_duration,omitempty"`
	Offspring         *OffspringV1 `json:"offspring,omitempty"`
}

type OffspringV1 struct {
	Species     string   `json:"species"`
	Distinction int      `json:"distinction"`
	Biome       string   `json:"biome"`
	Traits      []string `json:"traits"`
}

type SpecimenV1 struct {
	ID               string     `json:"id"`
	Species          string     `json:"species"`
	Distinction      int        `json:"distinction"`
	Biome            string     `json:"biome"`
	Traits           []string   `json:"traits"`
	Vitality         float64    `json:"vitality"`
	IsMature         bool       `json:"is_mature"`
	MaturityProgress float64    `json:"maturity_progress"`
	Location         LocationV1 `json:"location"`
	IsLegendary      bool       `json:"is_legendary,omitempty"`
	BornAt           int64      `json:"born_at,omitempty"`
}

type LocationV1 struct {
	Kind  string `json:"kind"`
	Biome string `json:"biome,omitempty"`
	Slot  int    `json:"slot,omitempty"`
}

// Encode writes the header line followed by the JSON body, all inside one zstd stream.
func Encode(w io.Writer, s SaveV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	h := s.Header
	if h.Version == "" {
		h.Version = Version
	}
	if h.Revision == 0 {
		h.Revision = CurrentRevision
	}
	hb, err := json.Marshal(h)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&s); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Marshal is Encode into memory.
func Marshal(s SaveV1) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRaw splits a save stream into its header and undecoded body. The body is
// left raw so migrations can run before it is bound to SaveV1.
func DecodeRaw(r io.Reader) (Header, []byte, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: %q", ErrVersionMismatch, h.Version)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return h, nil, fmt.Errorf("read body: %w", err)
	}
	return h, body, nil
}

// DecodeBody validates a current-revision body against the save schema and binds it.
func DecodeBody(h Header, body []byte) (SaveV1, error) {
	var s SaveV1
	if err := ValidateBody(body); err != nil {
		return s, err
	}
	if err := json.Unmarshal(body, &s); err != nil {
		return s, fmt.Errorf("decode body: %w", err)
	}
	s.Header = h
	s.Header.Revision = CurrentRevision
	return s, nil
}

func WriteFile(path string, s SaveV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func ReadFileRaw(path string) (Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	return DecodeRaw(f)
}
