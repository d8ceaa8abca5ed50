package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sanctuary.game/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		interval = flag.Duration("every", 2*time.Second, "minimum time between commands")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{}
	var lastCmd time.Time
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		var view *protocol.StateView
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick_rate=%d seeds=%.1f", w.SessionID, w.TickRateHz, w.State.Seeds)
			view = &w.State
		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			view = &st.State
		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(msg, &r); err == nil && !r.OK {
				logger.Printf("RESULT %s %s: %s", r.ReqID, r.Code, r.Message)
			}
		case protocol.TypeEvents:
			var ev protocol.EventsMsg
			if err := json.Unmarshal(msg, &ev); err == nil {
				for _, e := range ev.Events {
					logger.Printf("EVENT %s %v", e.Type, e.Data)
				}
			}
		}
		if view == nil || time.Since(lastCmd) < *interval {
			continue
		}
		if cmd := b.decide(*view); cmd != nil {
			lastCmd = time.Now()
			_ = conn.WriteJSON(cmd)
		}
	}
}

// bot is a simple idle strategy: keep birds working, rest them when they run dry,
// and try to buy forager slots when nothing else needs doing.
type bot struct {
	seq int
}

func (b *bot) cmd(name string, args protocol.CmdArgs) *protocol.CmdMsg {
	b.seq++
	return &protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		ReqID:           fmt.Sprintf("bot_%d", b.seq),
		Cmd:             name,
		Args:            args,
	}
}

func (b *bot) assign(id string, role protocol.RoleRef) *protocol.CmdMsg {
	return b.cmd(protocol.CmdAssign, protocol.CmdArgs{SpecimenID: id, Role: &role})
}

func (b *bot) decide(v protocol.StateView) *protocol.CmdMsg {
	freePerch := -1
	for i, p := range v.Perches {
		if p.Unlocked && p.Occupant == "" {
			freePerch = i
			break
		}
	}
	freeForager := func() (string, int, bool) {
		for _, bm := range v.Biomes {
			if !bm.Unlocked {
				continue
			}
			for i, f := range bm.Foragers {
				if f.Unlocked && f.Occupant == "" {
					return bm.ID, i, true
				}
			}
		}
		return "", 0, false
	}

	for _, s := range v.Specimens {
		working := strings.HasPrefix(s.Location, "forager(") || strings.HasPrefix(s.Location, "surveyor(")
		if working && s.Vitality <= 0 && freePerch >= 0 {
			return b.assign(s.ID, protocol.RoleRef{Kind: "PERCH", Slot: freePerch})
		}
	}
	for _, s := range v.Specimens {
		if strings.HasPrefix(s.Location, "perch(") && s.Vitality >= s.Capacity {
			if biome, slot, ok := freeForager(); ok {
				return b.assign(s.ID, protocol.RoleRef{Kind: "FORAGER", Biome: biome, Slot: slot})
			}
		}
	}
	for _, s := range v.Specimens {
		if s.Location != "collection" || s.Vitality <= 0 {
			continue
		}
		if biome, slot, ok := freeForager(); ok {
			return b.assign(s.ID, protocol.RoleRef{Kind: "FORAGER", Biome: biome, Slot: slot})
		}
		for _, bm := range v.Biomes {
			if bm.Unlocked && bm.Surveyor == "" {
				return b.assign(s.ID, protocol.RoleRef{Kind: "SURVEYOR", Biome: bm.ID})
			}
		}
	}
	for _, bm := range v.Biomes {
		if !bm.Unlocked {
			continue
		}
		for i, f := range bm.Foragers {
			if !f.Unlocked {
				return b.cmd(protocol.CmdUnlockForagerSlot, protocol.CmdArgs{Biome: bm.ID, Slot: i})
			}
		}
	}
	return nil
}
