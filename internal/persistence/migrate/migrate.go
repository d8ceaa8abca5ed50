// Package migrate upgrades older revisions of a sanctuary/1 save body to the current
// revision. Every upgrade runs here, once, before the body is bound to snapshot.SaveV1.
package migrate

import (
	"encoding/json"
	"fmt"

	"sanctuary.game/internal/persistence/snapshot"
)

// Options carries the tuning values some steps need.
type Options struct {
	// Capacity is vitality capacity by distinction-1.
	Capacity []float64
}

type step struct {
	from  int
	name  string
	apply func(doc map[string]any, opt Options) error
}

var steps = []step{
	{from: 1, name: "vitality-percent-to-absolute", apply: vitalityToAbsolute},
	{from: 2, name: "default-missing-fields", apply: defaultMissingFields},
}

// Upgrade rewrites body from revision rev to snapshot.CurrentRevision. It returns the
// names of the steps applied.
func Upgrade(rev int, body []byte, opt Options) ([]byte, []string, error) {
	if rev <= 0 {
		rev = 1
	}
	if rev > snapshot.CurrentRevision {
		return nil, nil, fmt.Errorf("migrate: revision %d is newer than %d", rev, snapshot.CurrentRevision)
	}
	if rev == snapshot.CurrentRevision {
		return body, nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("migrate: decode: %w", err)
	}
	var applied []string
	for _, s := range steps {
		if s.from < rev {
			continue
		}
		if err := s.apply(doc, opt); err != nil {
			return nil, applied, fmt.Errorf("migrate: %s: %w", s.name, err)
		}
		applied = append(applied, s.name)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, applied, fmt.Errorf("migrate: encode: %w", err)
	}
	return out, applied, nil
}

// Decode runs the whole load pipeline for a body whose header already passed the
// version gate: upgrade, schema validation, binding.
func Decode(h snapshot.Header, body []byte, opt Options) (snapshot.SaveV1, error) {
	up, _, err := Upgrade(h.Revision, body, opt)
	if err != nil {
		return snapshot.SaveV1{}, err
	}
	return snapshot.DecodeBody(h, up)
}

// Revision 1 stored vitality as a percentage of capacity.
func vitalityToAbsolute(doc map[string]any, opt Options) error {
	specs, _ := doc["specimens"].([]any)
	for i, raw := range specs {
		sp, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("specimens[%d]: not an object", i)
		}
		d, _ := sp["distinction"].(float64)
		pct, _ := sp["vitality"].(float64)
		idx := int(d) - 1
		if idx < 0 || idx >= len(opt.Capacity) {
			return fmt.Errorf("specimens[%d]: distinction %v out of range", i, d)
		}
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		sp["vitality"] = pct / 100 * opt.Capacity[idx]
	}
	return nil
}

// Revision 2 predates legendaries, restore cooldowns and milestone flags.
func defaultMissingFields(doc map[string]any, _ Options) error {
	for _, key := range []string{
		"crystals", "biomes", "perches", "breeding_programs", "specimens",
		"catalogued_species", "legendaries_acquired", "milestones",
	} {
		if v, ok := doc[key]; !ok || v == nil {
			doc[key] = []any{}
		}
	}
	perches, _ := doc["perches"].([]any)
	for _, raw := range perches {
		if p, ok := raw.(map[string]any); ok {
			if _, ok := p["cooldown_until"]; !ok {
				p["cooldown_until"] = 0
			}
		}
	}
	if _, ok := doc["counters"]; !ok {
		doc["counters"] = map[string]any{"next_specimen": 0}
	}
	for _, key := range []string{"prestige_count", "last_save_time", "last_open_time", "total_seeds_earned"} {
		if _, ok := doc[key]; !ok {
			doc[key] = 0
		}
	}
	return nil
}
