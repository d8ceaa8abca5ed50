package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sanctuary.game/internal/persistence/indexdb"
	"sanctuary.game/internal/persistence/migrate"
	"sanctuary.game/internal/persistence/store"
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world"
)

// openStore selects the save backend. The sqlite backend shares the index database.
func openStore(kind, dataDir, slot string, keep int, idx *indexdb.SQLiteIndex, opt migrate.Options) (store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "file":
		fs := store.NewFileStore(filepath.Join(dataDir, "saves"), opt)
		if keep > 0 {
			fs.Keep = keep
		}
		return fs, nil
	case "sqlite":
		if idx == nil {
			return nil, fmt.Errorf("-store=sqlite needs the index database (drop -disable_index)")
		}
		return idx.Slot(slot, opt), nil
	default:
		return nil, fmt.Errorf("unsupported store: %s", kind)
	}
}

func openIndex(dataDir string, disable bool) (*indexdb.SQLiteIndex, error) {
	if disable {
		return nil, nil
	}
	return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "sanctuary.sqlite"))
}

// openIngest returns nil when no endpoint is configured.
func openIngest(endpoint, sanctuaryID string, logger *log.Logger) (*indexdb.Ingest, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv("SANCTUARY_INGEST_URL"))
	}
	if endpoint == "" {
		return nil, nil
	}
	return indexdb.OpenIngest(indexdb.IngestConfig{
		Endpoint:      endpoint,
		Token:         strings.TrimSpace(os.Getenv("SANCTUARY_INGEST_TOKEN")),
		SanctuaryID:   sanctuaryID,
		BatchSize:     envInt("SANCTUARY_INGEST_BATCH_SIZE", 128),
		FlushInterval: time.Duration(envInt("SANCTUARY_INGEST_FLUSH_MS", 500)) * time.Millisecond,
		Logger:        logger,
	})
}

// eventFanout forwards each batch to every sink; a failing sink does not stop the rest.
type eventFanout []world.EventLogger

func (f eventFanout) WriteEvents(evs []protocol.Event) error {
	var first error
	for _, l := range f {
		if l == nil {
			continue
		}
		if err := l.WriteEvents(evs); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
