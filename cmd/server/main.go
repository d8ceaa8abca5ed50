package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"sanctuary.game/internal/persistence/archive"
	"sanctuary.game/internal/persistence/export"
	"sanctuary.game/internal/persistence/indexdb"
	persistlog "sanctuary.game/internal/persistence/log"
	"sanctuary.game/internal/persistence/migrate"
	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/persistence/store"
	"sanctuary.game/internal/sim/catalogs"
	"sanctuary.game/internal/sim/tuning"
	"sanctuary.game/internal/sim/world"
	"sanctuary.game/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		sanctuaryID  = flag.String("sanctuary", "default", "sanctuary id (save slot and ingest tag)")
		configDir    = flag.String("configs", "", "catalog directory (default: embedded catalogs)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml, else built-in)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		storeKind    = flag.String("store", "file", "save backend: file|sqlite")
		keepSaves    = flag.Int("keep", 3, "snapshot files kept by the file store")
		disableIndex = flag.Bool("disable_index", false, "disable the sqlite event index")
		ingestURL    = flag.String("ingest_url", "", "remote event ingest endpoint (or SANCTUARY_INGEST_URL)")
		ledgerCSV    = flag.String("ledger_csv", "", "append a ledger row per save to this CSV file")
		cmdMax       = flag.Int("cmd_max", 20, "commands per connection per second (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	simLogger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tune, err := loadTuning(*configDir, *tuningPath, logger)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	idx, err := openIndex(*dataDir, *disableIndex)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	migrateOpt := migrate.Options{Capacity: tune.Vitality.Capacity}
	st, err := openStore(*storeKind, *dataDir, *sanctuaryID, *keepSaves, idx, migrateOpt)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}

	w, err := loadWorld(st, tune, cats, simLogger, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	evLog := persistlog.NewEventLogger(*dataDir)
	defer evLog.Close()
	sinks := eventFanout{evLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	ingest, err := openIngest(*ingestURL, *sanctuaryID, logger)
	if err != nil {
		logger.Fatalf("ingest: %v", err)
	}
	if ingest != nil {
		defer ingest.Close()
		sinks = append(sinks, ingest)
	}
	w.SetEventLogger(sinks)

	if r := w.ResumeOffline(); !r.OK() {
		logger.Printf("resume: %s", r.Error())
	} else if len(r.Events) > 0 {
		logger.Printf("offline progress applied (%d events)", len(r.Events))
	}

	ledger, err := export.OpenLedgerLog(*ledgerCSV)
	if err != nil {
		logger.Fatalf("ledger: %v", err)
	}
	defer ledger.Close()

	sigCtx, stopSignals := signalContext()
	defer stopSignals()
	worldCtx, stopWorld := context.WithCancel(context.Background())
	defer stopWorld()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(worldCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world stopped: %v", err)
		}
	}()

	saver := &saver{world: w, store: st, ledger: ledger, dataDir: *dataDir, logger: logger}
	go saver.loop(sigCtx, time.Duration(tune.AutosaveEverySec)*time.Second)

	wsCfg := ws.DefaultConfig()
	wsCfg.CmdMax = *cmdMax

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(*sanctuaryID, w, idx, ingest))
	mux.HandleFunc("/v1/ws", ws.NewServer(w, wsCfg, logger).Handler())

	if envBool("SANCTUARY_ENABLE_ADMIN_HTTP", true) {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(struct {
				Sanctuary string             `json:"sanctuary"`
				Metrics   world.WorldMetrics `json:"metrics"`
			}{*sanctuaryID, w.Metrics()})
		})
		mux.HandleFunc("/admin/v1/save", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			at, err := saver.saveNow(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "saved_at_ms": at})
		})
	}
	if envBool("SANCTUARY_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-sigCtx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Final save while the loop is still running, then stop it.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	if at, err := saver.saveNow(ctx2); err != nil {
		logger.Printf("final save: %v", err)
	} else {
		logger.Printf("saved at %d", at)
	}
	cancel2()
	stopWorld()
	<-worldDone
}

func loadTuning(configDir, path string, logger *log.Logger) (tuning.Tuning, error) {
	p := strings.TrimSpace(path)
	if p == "" && strings.TrimSpace(configDir) != "" {
		p = filepath.Join(configDir, "tuning.yaml")
	}
	if p == "" {
		return tuning.Defaults(), nil
	}
	t, err := tuning.Load(p)
	if err != nil && os.IsNotExist(err) && path == "" {
		logger.Printf("tuning not found (%s); using defaults", p)
		return tuning.Defaults(), nil
	}
	return t, err
}

// loadWorld builds the world from the stored save. Unreadable or invalid saves degrade
// to a fresh start.
func loadWorld(st store.Store, tune tuning.Tuning, cats *catalogs.Catalogs, simLogger, logger *log.Logger) (*world.World, error) {
	cfg := world.WorldConfig{Tuning: tune, Catalogs: cats, Logger: simLogger}
	w, err := world.New(cfg)
	if err != nil {
		return nil, err
	}
	s, err := st.Load()
	switch {
	case err != nil:
		if errors.Is(err, snapshot.ErrVersionMismatch) {
			logger.Printf("warn: discarding save from another version: %v", err)
		} else {
			logger.Printf("warn: load failed, starting fresh: %v", err)
		}
		return w, nil
	case s == nil:
		logger.Printf("no save found; starting fresh")
		return w, nil
	}
	if err := w.ImportSave(*s); err != nil {
		logger.Printf("warn: import failed, starting fresh: %v", err)
		return world.New(cfg)
	}
	logger.Printf("resumed save from %d (%d specimens)", s.LastSaveTime, len(s.Specimens))
	return w, nil
}

type saver struct {
	world   *world.World
	store   store.Store
	ledger  *export.LedgerLog
	dataDir string
	logger  *log.Logger

	mu   sync.Mutex
	last *snapshot.SaveV1
}

func (s *saver) loop(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
			if _, err := s.saveNow(ctx2); err != nil {
				s.logger.Printf("autosave: %v", err)
			}
			cancel()
		}
	}
}

// saveNow exports the world through its loop and writes the document. Store failures
// are returned to the caller, which logs them; the world keeps running.
func (s *saver) saveNow(ctx context.Context) (int64, error) {
	doc, err := s.world.RequestSave(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	if err := s.store.Save(doc); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	if err := s.ledger.Append(doc); err != nil {
		s.logger.Printf("ledger: %v", err)
	}
	s.archive(doc)
	return doc.LastSaveTime, nil
}

// archive keeps the last save of each finished run under dataDir/archives.
func (s *saver) archive(doc snapshot.SaveV1) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil && s.dataDir != "" {
		if n, path, ok, err := archive.ArchiveRun(s.dataDir, *s.last, doc); err != nil {
			s.logger.Printf("archive: %v", err)
		} else if ok {
			s.logger.Printf("archived run %d: %s", n, path)
		}
	}
	s.last = &doc
}

func metricsHandler(id string, w *world.World, idx *indexdb.SQLiteIndex, ingest *indexdb.Ingest) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()

		gauge := func(name, help string, value any) {
			fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
			fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
			fmt.Fprintf(rw, "%s{sanctuary=%q} %v\n", name, id, value)
		}
		gauge("sanctuary_seeds", "Current seed balance.", m.Seeds)
		gauge("sanctuary_seeds_earned_total", "Seeds earned since the last prestige.", m.TotalSeedsEarned)
		gauge("sanctuary_income_per_sec", "Steady-state forager income.", m.IncomePerSec)
		gauge("sanctuary_specimens", "Specimens in the registry.", m.Specimens)
		gauge("sanctuary_specimens_working", "Specimens in forager or surveyor roles.", m.Working)
		gauge("sanctuary_specimens_breeding", "Specimens held by breeding programs.", m.Breeding)
		gauge("sanctuary_pending_culls", "Deferred rarity cap culls.", m.PendingCulls)
		gauge("sanctuary_prestige_count", "Prestiges performed.", m.PrestigeCount)
		gauge("sanctuary_clients", "Connected clients.", m.Clients)
		gauge("sanctuary_inbox_depth", "Queued commands.", m.QueueDepths.Inbox)
		gauge("sanctuary_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))
		gauge("sanctuary_anomalies_total", "Integrity defects detected.", m.Anomalies)

		if idx != nil {
			s := idx.Stats()
			gauge("sanctuary_index_queue_depth", "Event index queue depth.", s.QueueDepth)
			gauge("sanctuary_index_dropped_total", "Events dropped by the index writer.", s.DropEventTotal)
		}
		if ingest != nil {
			s := ingest.Stats()
			gauge("sanctuary_ingest_queue_depth", "Ingest queue depth.", s.QueueDepth)
			gauge("sanctuary_ingest_dropped_total", "Events dropped by the ingest sink.", s.QueueDroppedTotal)
			gauge("sanctuary_ingest_flush_fail_total", "Failed ingest flushes.", s.FlushFailTotal)
			gauge("sanctuary_ingest_sent_total", "Events delivered to the ingest endpoint.", s.SentTotal)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
