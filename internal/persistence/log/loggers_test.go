package log

import (
	"path/filepath"
	"testing"
	"time"

	"sanctuary.game/internal/protocol"
)

func TestEventLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	l.w.now = func() time.Time { return at }

	evs := []protocol.Event{
		{Type: protocol.EventSurveyCompleted, AtMs: 1, Data: map[string]any{"biome": "forest"}},
		{Type: protocol.EventMatured, AtMs: 2, Data: map[string]any{"specimen_id": "B000001"}},
	}
	if err := l.WriteEvents(evs); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteEvents(nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadEvents(filepath.Join(dir, "events", "events-2026-03-01-10.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Type != protocol.EventSurveyCompleted || got[1].AtMs != 2 {
		t.Fatalf("unexpected events %+v", got)
	}
	if got[0].Data["biome"] != "forest" {
		t.Fatalf("event data lost: %+v", got[0].Data)
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return at }
	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	at = at.Add(time.Hour)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()
	matches, _ := filepath.Glob(filepath.Join(dir, "x-*.jsonl.zst"))
	if len(matches) != 2 {
		t.Fatalf("expected two hourly files, got %v", matches)
	}
}
