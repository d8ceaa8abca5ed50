package world

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sanctuary.game/internal/persistence/snapshot"
	"sanctuary.game/internal/protocol"
)

// CommandRequest carries one CMD into the loop. Resp receives exactly one Result.
type CommandRequest struct {
	SessionID string
	Cmd       string
	Args      protocol.CmdArgs
	Resp      chan Result
}

type JoinRequest struct {
	ClientName string
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
}

type saveRequest struct {
	resp chan snapshot.SaveV1
}

type clientState struct {
	id   string
	name string
	out  chan []byte
}

func (w *World) Inbox() chan<- CommandRequest { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

// Run owns the world until ctx is cancelled or Stop is called. Commands received
// between ticks are applied in arrival order before the tick integrates.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := w.clock.Now()
	var lastPush time.Time
	pushEvery := time.Duration(w.cfg.StatePushEveryMs) * time.Millisecond

	var pendingCmds []CommandRequest
	w.publishMetrics(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			delete(w.clients, id)
		case req := <-w.saveReq:
			s := w.ExportSave()
			w.lastSaveAtMs = s.LastSaveTime
			req.resp <- s
		case req := <-w.inbox:
			pendingCmds = append(pendingCmds, req)
		case <-ticker.C:
			for _, req := range pendingCmds {
				r := w.Apply(req.Cmd, req.Args)
				if req.Resp != nil {
					req.Resp <- r
				}
			}
			pendingCmds = pendingCmds[:0]

			now := w.clock.Now()
			dt := now.Sub(last)
			last = now
			t0 := time.Now()
			evs := w.advance(dt)
			w.publishMetrics(float64(time.Since(t0).Microseconds()) / 1000)
			if len(evs) > 0 {
				w.broadcast(protocol.EventsMsg{Type: protocol.TypeEvents, ProtocolVersion: protocol.Version, Events: evs})
			}
			if pushEvery > 0 && now.Sub(lastPush) >= pushEvery {
				lastPush = now
				w.broadcast(protocol.StateMsg{Type: protocol.TypeState, ProtocolVersion: protocol.Version, AtMs: w.nowMs, State: w.View()})
			}
		}
	}
}

// advance runs one loop tick. A gap of at least the offline minimum (the host slept or
// the process stalled) is reconciled through Backfill so the offline clamp and forced
// unassignment apply; the clock still ends at the real elapsed time.
func (w *World) advance(dt time.Duration) []protocol.Event {
	if dt < time.Duration(w.cfg.Offline.MinSec*float64(time.Second)) {
		return w.Step(dt)
	}
	end := w.nowMs + dt.Milliseconds()
	w.warn("tick gap of %s, reconciling as offline progress", dt)
	r := w.Backfill(dt)
	w.nowMs = end
	w.msCarry = 0
	return r.Events
}

func (w *World) Stop() { close(w.stop) }

// RequestSave asks the loop for a save document and marks the world saved at its time.
func (w *World) RequestSave(ctx context.Context) (snapshot.SaveV1, error) {
	req := saveRequest{resp: make(chan snapshot.SaveV1, 1)}
	select {
	case w.saveReq <- req:
	case <-ctx.Done():
		return snapshot.SaveV1{}, ctx.Err()
	}
	select {
	case s := <-req.resp:
		return s, nil
	case <-ctx.Done():
		return snapshot.SaveV1{}, ctx.Err()
	}
}

func (w *World) handleJoin(req JoinRequest) {
	id := fmt.Sprintf("S%06d", w.nextSessionNum.Add(1))
	w.clients[id] = &clientState{id: id, name: req.ClientName, out: req.Out}
	w.logger.Printf("session %s joined (%s)", id, req.ClientName)
	req.Resp <- JoinResponse{SessionID: id, Welcome: w.Welcome(id)}
}

// Welcome builds the handshake reply for a session.
func (w *World) Welcome(sessionID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		TickRateHz:      w.cfg.TickRateHz,
		Catalogs: protocol.CatalogDigests{
			BiomesDigest:      w.catalogs.Biomes.Digest,
			SpeciesDigest:     w.catalogs.Species.Digest,
			TraitsDigest:      w.catalogs.Traits.Digest,
			LegendariesDigest: w.catalogs.Legendaries.Digest,
			TuningDigest:      w.cfg.Digest(),
		},
		State: w.View(),
	}
}

func (w *World) broadcast(msg any) {
	if len(w.clients) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		w.warn("broadcast: %v", err)
		return
	}
	for _, c := range w.clients {
		sendLatest(c.out, b)
	}
}

// sendLatest never blocks the loop; a slow client loses its oldest queued message.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
