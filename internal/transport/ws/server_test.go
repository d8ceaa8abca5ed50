package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world"
)

// fakeRuntime answers joins and commands the way the world loop does.
type fakeRuntime struct {
	inbox chan world.CommandRequest
	join  chan world.JoinRequest
	leave chan string
	cmds  chan string
}

func newFakeRuntime() *fakeRuntime {
	rt := &fakeRuntime{
		inbox: make(chan world.CommandRequest, 8),
		join:  make(chan world.JoinRequest, 1),
		leave: make(chan string, 1),
		cmds:  make(chan string, 16),
	}
	go func() {
		for {
			select {
			case j := <-rt.join:
				j.Resp <- world.JoinResponse{SessionID: "S000001", Welcome: protocol.WelcomeMsg{
					Type: protocol.TypeWelcome, ProtocolVersion: protocol.Version, SessionID: "S000001",
				}}
			case c := <-rt.inbox:
				rt.cmds <- c.Cmd
				if c.Cmd == protocol.CmdPrestige {
					c.Resp <- world.Result{Code: protocol.ErrPrecondition, Message: "not yet"}
					continue
				}
				c.Resp <- world.Result{Events: []protocol.Event{{Type: protocol.EventMatured}}}
			case <-rt.leave:
				return
			}
		}
	}()
	return rt
}

func (f *fakeRuntime) Inbox() chan<- world.CommandRequest { return f.inbox }
func (f *fakeRuntime) Join() chan<- world.JoinRequest     { return f.join }
func (f *fakeRuntime) Leave() chan<- string               { return f.leave }

func dial(t *testing.T, cfg Config) (*websocket.Conn, *fakeRuntime) {
	t.Helper()
	rt := newFakeRuntime()
	srv := httptest.NewServer(NewServer(rt, cfg, nil).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, rt
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readResult(t *testing.T, conn *websocket.Conn) protocol.ResultMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var r protocol.ResultMsg
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return r
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var w protocol.WelcomeMsg
	if err := conn.ReadJSON(&w); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	return w
}

func TestHandshakeAndCommand(t *testing.T) {
	conn, rt := dial(t, DefaultConfig())
	w := hello(t, conn)
	if w.Type != protocol.TypeWelcome || w.SessionID != "S000001" {
		t.Fatalf("unexpected welcome: %+v", w)
	}

	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ReqID: "r1", Cmd: protocol.CmdRecall})
	r := readResult(t, conn)
	if !r.OK || r.ReqID != "r1" || len(r.Events) != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if got := <-rt.cmds; got != protocol.CmdRecall {
		t.Fatalf("runtime saw %q", got)
	}

	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ReqID: "r2", Cmd: protocol.CmdPrestige})
	r = readResult(t, conn)
	if r.OK || r.Code != protocol.ErrPrecondition {
		t.Fatalf("expected precondition failure, got %+v", r)
	}
}

func TestSchemaRejection(t *testing.T) {
	conn, rt := dial(t, DefaultConfig())
	hello(t, conn)

	raw, _ := json.Marshal(map[string]any{"type": "CMD", "protocol_version": protocol.Version, "req_id": "x", "cmd": "FLY"})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := readResult(t, conn)
	if r.Code != protocol.ErrProtoBadRequest || r.ReqID != "x" {
		t.Fatalf("expected proto bad request, got %+v", r)
	}
	select {
	case c := <-rt.cmds:
		t.Fatalf("invalid command reached runtime: %s", c)
	default:
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CmdWindowMs = 60_000
	cfg.CmdMax = 1
	conn, _ := dial(t, cfg)
	hello(t, conn)

	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ReqID: "a", Cmd: protocol.CmdRecall})
	if r := readResult(t, conn); !r.OK {
		t.Fatalf("first command rejected: %+v", r)
	}
	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ReqID: "b", Cmd: protocol.CmdRecall})
	if r := readResult(t, conn); r.Code != protocol.ErrRateLimit {
		t.Fatalf("expected rate limit, got %+v", r)
	}
}

func TestHandshakeRejectsWrongFirstMessage(t *testing.T) {
	conn, _ := dial(t, DefaultConfig())
	send(t, conn, protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, Cmd: protocol.CmdRecall})
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestSupportsVersionList(t *testing.T) {
	if !supports(protocol.HelloMsg{ProtocolVersion: "0.9", SupportedVersions: []string{"0.9", protocol.Version}}) {
		t.Fatalf("expected supported version in list to be accepted")
	}
	if supports(protocol.HelloMsg{ProtocolVersion: "0.9"}) {
		t.Fatalf("expected unknown version to be rejected")
	}
}
