package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"sanctuary.game/internal/persistence/migrate"
	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/tuning"
)

// SQLiteIndex holds save slots and a secondary index of emitted events. Saves are
// written synchronously; events go through a background writer and may be dropped
// when it falls behind (the JSONL event log stays the source of truth).
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropEvents atomic.Uint64
}

type req struct {
	events []protocol.Event
	done   chan struct{} // set for flush requests
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropEventTotal uint64
}

// EventRow is one indexed event.
type EventRow struct {
	Seq        int64
	AtMs       int64
	Type       string
	SpecimenID string
	Raw        string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS slots (
			slot TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			revision INTEGER NOT NULL,
			saved_at_ms INTEGER NOT NULL,
			seeds REAL NOT NULL,
			specimens INTEGER NOT NULL,
			prestige_count INTEGER NOT NULL,
			doc TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at_ms INTEGER NOT NULL,
			type TEXT NOT NULL,
			specimen_id TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_at ON events(type, at_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_specimen ON events(specimen_id, at_ms);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropEventTotal: s.dropEvents.Load(),
	}
}

// WriteEvents queues a batch for the background writer. It never blocks.
func (s *SQLiteIndex) WriteEvents(evs []protocol.Event) error {
	if s == nil || s.closed.Load() || len(evs) == 0 {
		return nil
	}
	batch := append([]protocol.Event(nil), evs...)
	select {
	case s.ch <- req{events: batch}:
	default:
		s.dropEvents.Add(uint64(len(evs)))
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	insert, _ := s.db.Prepare(`INSERT INTO events(at_ms,type,specimen_id,raw_json) VALUES(?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 512
		commitMaxWait = time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			if r.done != nil {
				commit()
				close(r.done)
				continue
			}
			batch := r.events
			begin()
			if tx == nil || insert == nil {
				s.dropEvents.Add(uint64(len(batch)))
				continue
			}
			st := tx.Stmt(insert)
			for _, ev := range batch {
				raw, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				var sid any
				if id, ok := ev.Data["specimen_id"].(string); ok && id != "" {
					sid = id
				}
				if _, err := st.Exec(ev.AtMs, ev.Type, sid, string(raw)); err != nil {
					s.dropEvents.Add(1)
					continue
				}
				opCount++
			}
			if opCount >= commitEvery {
				commit()
			}
		case <-ticker.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}

// Flush blocks until every batch queued before it has been committed.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{done: done}
	<-done
}

// RecentEvents returns up to limit indexed events, newest first. An empty typ matches
// every type.
func (s *SQLiteIndex) RecentEvents(ctx context.Context, typ string, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT seq, at_ms, type, COALESCE(specimen_id,''), raw_json FROM events`
	args := []any{}
	if typ != "" {
		q += ` WHERE type = ?`
		args = append(args, typ)
	}
	q += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.Seq, &r.AtMs, &r.Type, &r.SpecimenID, &r.Raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCatalogs records the catalog and tuning digests the server runs with.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct {
		name   string
		digest string
		v      any
	}
	rows := []row{
		{"biomes", cats.Biomes.Digest, cats.Biomes.ByID},
		{"species", cats.Species.Digest, cats.Species.Defs},
		{"traits", cats.Traits.Digest, cats.Traits.IDs},
		{"legendaries", cats.Legendaries.Digest, cats.Legendaries.ByBiome},
		{"tuning", tune.Digest(), tune},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		b, err := json.Marshal(r.v)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", r.name, err)
		}
		if _, err := stmt.Exec(r.name, r.digest, string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CatalogDigest returns the recorded digest for a catalog name.
func (s *SQLiteIndex) CatalogDigest(name string) (string, error) {
	var d string
	err := s.db.QueryRow(`SELECT digest FROM catalogs WHERE name = ?`, name).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return d, err
}

// SlotStore is a persistence store backed by one row of the slots table.
type SlotStore struct {
	idx     *SQLiteIndex
	slot    string
	migrate migrate.Options
}

func (s *SQLiteIndex) Slot(name string, opt migrate.Options) *SlotStore {
	if name == "" {
		name = "default"
	}
	return &SlotStore{idx: s, slot: name, migrate: opt}
}

func (st *SlotStore) Save(doc snapshot.SaveV1) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("slot %s: encode: %w", st.slot, err)
	}
	_, err = st.idx.db.Exec(
		`INSERT OR REPLACE INTO slots(slot,version,revision,saved_at_ms,seeds,specimens,prestige_count,doc) VALUES(?,?,?,?,?,?,?,?)`,
		st.slot, snapshot.Version, snapshot.CurrentRevision, doc.LastSaveTime, doc.Seeds, len(doc.Specimens), doc.PrestigeCount, string(body),
	)
	if err != nil {
		return fmt.Errorf("slot %s: %w", st.slot, err)
	}
	return nil
}

// Load returns (nil, nil) for an empty slot.
func (st *SlotStore) Load() (*snapshot.SaveV1, error) {
	var (
		h    snapshot.Header
		body string
	)
	err := st.idx.db.QueryRow(`SELECT version, revision, saved_at_ms, doc FROM slots WHERE slot = ?`, st.slot).
		Scan(&h.Version, &h.Revision, &h.SavedAtMs, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("slot %s: %w", st.slot, err)
	}
	if h.Version != snapshot.Version {
		return nil, fmt.Errorf("slot %s: %w: %q", st.slot, snapshot.ErrVersionMismatch, h.Version)
	}
	doc, err := migrate.Decode(h, []byte(body), st.migrate)
	if err != nil {
		return nil, fmt.Errorf("slot %s: %w", st.slot, err)
	}
	return &doc, nil
}

// SlotInfo summarises a stored slot without decoding its document.
type SlotInfo struct {
	Slot          string
	SavedAtMs     int64
	Seeds         float64
	Specimens     int
	PrestigeCount int
}

func (s *SQLiteIndex) Slots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, saved_at_ms, seeds, specimens, prestige_count FROM slots ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SlotInfo
	for rows.Next() {
		var si SlotInfo
		if err := rows.Scan(&si.Slot, &si.SavedAtMs, &si.Seeds, &si.Specimens, &si.PrestigeCount); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}
