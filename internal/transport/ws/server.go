package ws

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/peekloop/session-service/internal/domain"
	"github.com/peekloop/session-service/internal/live"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	router   *live.Router

	pingEvery time.Duration
}

func NewServer(router *live.Router, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws. К какой сессии присоединяться, клиент говорит
// уже по сокету (join), одно соединение может состоять в нескольких.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, uuid.NewString())
	s.router.Connect(c)

	go s.writeLoop(c)
	s.readLoop(r, c)

	// очистка соединения идёт после его последней принятой мутации:
	// readLoop строго последовательный
	s.router.Disconnect(c.ID())
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
}

func (s *Server) readLoop(r *http.Request, c *wsConn) {
	defer func() { _ = c.Close() }()

	ctx := r.Context()
	ip := remoteIP(r)
	ua := r.UserAgent()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.invalid(c)
			continue
		}

		switch msg.Type {
		case MsgJoin:
			var p JoinRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.Join(ctx, c.ID(), p.SessionID)

		case MsgLeave:
			var p LeaveRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.Leave(ctx, c.ID(), p.SessionID)

		case MsgView:
			var p ViewRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.View(ctx, c.ID(), p.SessionID, domain.Attribution{
				UserID:      p.UserID,
				AnonymousID: p.AnonymousID,
				IPAddr:      ip,
				UserAgent:   ua,
			})

		case MsgReactionAdd:
			var p ReactionAddRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.AddReaction(ctx, c.ID(), p.SessionID, p.Emoji, domain.Attribution{
				UserID:      p.UserID,
				AnonymousID: p.AnonymousID,
				IPAddr:      ip,
			})

		case MsgReactionRemove:
			var p ReactionRemoveRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.RemoveReaction(ctx, c.ID(), p.ReactionID)

		case MsgPresence:
			var p PresenceRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.Presence(ctx, c.ID(), p.SessionID, p.Status)

		case MsgSessionUpdate:
			var p SessionUpdateRequest
			if json.Unmarshal(msg.Payload, &p) != nil {
				s.invalid(c)
				continue
			}
			s.router.UpdateSession(ctx, c.ID(), p.SessionID, p.Updates)

		case MsgPing:
			_ = c.Send(live.Pong(time.Now()))

		default:
			// неизвестный тип игнорируем
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

func (s *Server) invalid(c *wsConn) {
	_ = c.Send(live.Event{
		Name:    live.EvtError,
		Payload: live.ErrorPayload{Message: domain.ErrInvalidPayload.Error()},
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- соединение ---

type wsConn struct {
	conn   *websocket.Conn
	id     string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(evt live.Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(evt)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
