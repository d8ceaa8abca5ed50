package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sanctuary.game/internal/protocol"
)

// IngestConfig configures the remote event sink.
type IngestConfig struct {
	Endpoint      string
	Token         string
	SanctuaryID   string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxPending bounds events held across failed flushes; the oldest are dropped first.
	MaxPending int
	Logger     *log.Logger
}

// Ingest forwards emitted events to an HTTP endpoint in JSON batches. A failed batch
// is retained and retried on the next flush.
type Ingest struct {
	cfg        IngestConfig
	httpClient *http.Client

	ch   chan ingestEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropped   atomic.Uint64
	flushFail atomic.Uint64
	sent      atomic.Uint64
}

type ingestEvent struct {
	SanctuaryID string         `json:"sanctuary_id"`
	Event       protocol.Event `json:"event"`
}

type IngestStats struct {
	QueueDepth        int
	QueueCapacity     int
	QueueDroppedTotal uint64
	FlushFailTotal    uint64
	SentTotal         uint64
}

func OpenIngest(cfg IngestConfig) (*Ingest, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.SanctuaryID = strings.TrimSpace(cfg.SanctuaryID)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty ingest endpoint")
	}
	if cfg.SanctuaryID == "" {
		cfg.SanctuaryID = "default"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 8 * cfg.BatchSize
	}

	d := &Ingest{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		ch:         make(chan ingestEvent, 8192),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func (d *Ingest) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *Ingest) Stats() IngestStats {
	if d == nil {
		return IngestStats{}
	}
	return IngestStats{
		QueueDepth:        len(d.ch),
		QueueCapacity:     cap(d.ch),
		QueueDroppedTotal: d.dropped.Load(),
		FlushFailTotal:    d.flushFail.Load(),
		SentTotal:         d.sent.Load(),
	}
}

func (d *Ingest) WriteEvents(evs []protocol.Event) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	for _, ev := range evs {
		select {
		case d.ch <- ingestEvent{SanctuaryID: d.cfg.SanctuaryID, Event: ev}:
		default:
			d.dropped.Add(1)
			d.printf("ingest queue full; drop type=%s", ev.Type)
		}
	}
	return nil
}

func (d *Ingest) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	pending := make([]ingestEvent, 0, d.cfg.BatchSize)
	flush := func() {
		for len(pending) > 0 {
			n := min(len(pending), d.cfg.BatchSize)
			if err := d.sendBatch(pending[:n]); err != nil {
				d.flushFail.Add(1)
				d.printf("ingest flush failed batch=%d err=%v", n, err)
				if over := len(pending) - d.cfg.MaxPending; over > 0 {
					d.dropped.Add(uint64(over))
					pending = append(pending[:0], pending[over:]...)
				}
				return
			}
			d.sent.Add(uint64(n))
			pending = append(pending[:0], pending[n:]...)
		}
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			pending = append(pending, ev)
			if len(pending) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *Ingest) sendBatch(events []ingestEvent) error {
	body := struct {
		Events []ingestEvent `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if d.cfg.Token != "" {
			req.Header.Set("x-sanctuary-ingest-token", d.cfg.Token)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (d *Ingest) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
