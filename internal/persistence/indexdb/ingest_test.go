package indexdb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sanctuary.game/internal/protocol"
)

func TestIngestRetainsBatchOnFlushFailure(t *testing.T) {
	var mu sync.Mutex
	reqCount := 0
	applied := 0
	var lastToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqCount++
		thisReq := reqCount
		lastToken = r.Header.Get("x-sanctuary-ingest-token")
		mu.Unlock()

		if thisReq <= 3 {
			http.Error(w, "temporary failure", http.StatusInternalServerError)
			return
		}
		var body struct {
			Events []ingestEvent `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		applied += len(body.Events)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	in, err := OpenIngest(IngestConfig{
		Endpoint:      srv.URL,
		Token:         "tok",
		SanctuaryID:   "s1",
		BatchSize:     1,
		FlushInterval: 20 * time.Millisecond,
		HTTPTimeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("OpenIngest: %v", err)
	}
	defer func() { _ = in.Close() }()

	if err := in.WriteEvents([]protocol.Event{{Type: protocol.EventMatured, AtMs: 5}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := applied >= 1
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if applied < 1 {
		t.Fatalf("expected retained batch to be delivered; applied=%d reqCount=%d", applied, reqCount)
	}
	if lastToken != "tok" {
		t.Fatalf("token header=%q", lastToken)
	}
	st := in.Stats()
	if st.FlushFailTotal == 0 {
		t.Fatalf("expected flush failures to be recorded")
	}
	if st.QueueDroppedTotal != 0 {
		t.Fatalf("unexpected queue drops: %d", st.QueueDroppedTotal)
	}
}

func TestOpenIngestRequiresEndpoint(t *testing.T) {
	if _, err := OpenIngest(IngestConfig{Endpoint: "  "}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
