package world

import "sanctuary.game/internal/protocol"

func (w *World) emit(typ string, data map[string]any) {
	w.pending = append(w.pending, protocol.Event{Type: typ, AtMs: w.nowMs, Data: data})
}

func (w *World) drainEvents() []protocol.Event {
	if len(w.pending) == 0 {
		return nil
	}
	evs := w.pending
	w.pending = nil
	if w.eventLogger != nil {
		if err := w.eventLogger.WriteEvents(evs); err != nil {
			w.logger.Printf("event log: %v", err)
		}
	}
	for _, ev := range evs {
		if ev.Warning() {
			w.warn("%s %v", ev.Type, ev.Data)
		}
	}
	return evs
}
