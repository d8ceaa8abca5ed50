package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sanctuary.game/internal/protocol"
	"sanctuary.game/internal/sim/world"
	"sanctuary.game/internal/sim/world/logic/rates"
)

// Runtime is the part of the world loop the server talks to.
type Runtime interface {
	Inbox() chan<- world.CommandRequest
	Join() chan<- world.JoinRequest
	Leave() chan<- string
}

type Config struct {
	// CmdWindowMs and CmdMax bound CMD messages per connection; zero disables the limit.
	CmdWindowMs int64
	CmdMax      int
	// QueueSize is the per-connection outbound buffer.
	QueueSize int
	// ResultTimeout bounds the wait for a command result from the loop.
	ResultTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		CmdWindowMs:   1000,
		CmdMax:        20,
		QueueSize:     32,
		ResultTimeout: 5 * time.Second,
	}
}

type Server struct {
	rt  Runtime
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewServer(rt Runtime, cfg Config, logger *log.Logger) *Server {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.ResultTimeout <= 0 {
		cfg.ResultTimeout = 5 * time.Second
	}
	return &Server{
		rt:  rt,
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		now: time.Now,
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limit := rates.Window{WindowMs: s.cfg.CmdWindowMs, Max: s.cfg.CmdMax}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			res, ok := s.handleMessage(ctx, sessionID, msg, &limit)
			if !ok {
				continue
			}
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		s.rt.Leave() <- sessionID
		s.printf("session %s closed", sessionID)
	}
}

// handleMessage turns one inbound frame into a RESULT. ok is false for frames that get
// no reply (non-CMD types).
func (s *Server) handleMessage(ctx context.Context, sessionID string, msg []byte, limit *rates.Window) (protocol.ResultMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return resultErr("", protocol.ErrProtoBadRequest, "malformed json"), true
	}
	if base.Type != protocol.TypeCmd {
		return protocol.ResultMsg{}, false
	}
	var cmd protocol.CmdMsg
	_ = json.Unmarshal(msg, &cmd)
	if err := protocol.ValidateInbound(protocol.TypeCmd, msg); err != nil {
		return resultErr(cmd.ReqID, protocol.ErrProtoBadRequest, err.Error()), true
	}
	if cmd.ProtocolVersion != protocol.Version {
		return resultErr(cmd.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version"), true
	}
	if ok, retry := limit.Allow(s.now().UnixMilli()); !ok {
		return resultErr(cmd.ReqID, protocol.ErrRateLimit, "too many commands; retry in "+(time.Duration(retry)*time.Millisecond).String()), true
	}

	resp := make(chan world.Result, 1)
	req := world.CommandRequest{SessionID: sessionID, Cmd: cmd.Cmd, Args: cmd.Args, Resp: resp}
	timer := time.NewTimer(s.cfg.ResultTimeout)
	defer timer.Stop()
	select {
	case s.rt.Inbox() <- req:
	case <-ctx.Done():
		return protocol.ResultMsg{}, false
	case <-timer.C:
		return resultErr(cmd.ReqID, protocol.ErrInternal, "command queue full"), true
	}
	select {
	case r := <-resp:
		if !protocol.IsKnownCode(r.Code) {
			s.printf("unknown result code %q for %s", r.Code, cmd.Cmd)
			r.Code = protocol.ErrInternal
		}
		return protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			ReqID:           cmd.ReqID,
			OK:              r.OK(),
			Code:            r.Code,
			Message:         r.Message,
			Events:          r.Events,
		}, true
	case <-ctx.Done():
		return protocol.ResultMsg{}, false
	case <-timer.C:
		return resultErr(cmd.ReqID, protocol.ErrInternal, "timed out waiting for result"), true
	}
}

func resultErr(reqID, code, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         message,
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if err := protocol.ValidateInbound(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "invalid HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if !supports(hello) {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if strings.TrimSpace(hello.ClientName) == "" {
		hello.ClientName = "client"
	}

	out = make(chan []byte, s.cfg.QueueSize)
	respCh := make(chan world.JoinResponse, 1)
	s.rt.Join() <- world.JoinRequest{ClientName: hello.ClientName, Out: out, Resp: respCh}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.rt.Leave() <- resp.SessionID
		return "", nil
	}
	return resp.SessionID, out
}

func supports(h protocol.HelloMsg) bool {
	if h.ProtocolVersion == protocol.Version {
		return true
	}
	for _, v := range h.SupportedVersions {
		if v == protocol.Version {
			return true
		}
	}
	return false
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) printf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
