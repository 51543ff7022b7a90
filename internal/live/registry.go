package live

import (
	"sync"

	"github.com/peekloop/session-service/internal/domain"
)

type connEntry struct {
	conn  Conn
	rooms map[string]struct{}
}

// Registry ведёт живые соединения и их членство в комнатах.
// Только учёт: рассылки — дело Router/Dispatcher.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry
	rooms map[string]map[string]struct{} // sessionID -> set of connIDs
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Attach регистрирует соединение с пустым набором комнат. Идемпотентно.
func (r *Registry) Attach(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; ok {
		return
	}
	r.conns[conn.ID()] = &connEntry{
		conn:  conn,
		rooms: make(map[string]struct{}),
	}
	connectionsActive.Inc()
}

func (r *Registry) JoinRoom(connID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return domain.ErrUnknownConnection
	}
	e.rooms[sessionID] = struct{}{}

	rs, ok := r.rooms[sessionID]
	if !ok {
		rs = make(map[string]struct{})
		r.rooms[sessionID] = rs
		roomsActive.Inc()
	}
	rs[connID] = struct{}{}

	return nil
}

// LeaveRoom — обратная операция; no-op, если соединение не было участником.
func (r *Registry) LeaveRoom(connID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, sessionID)
}

func (r *Registry) leaveLocked(connID, sessionID string) {
	if e, ok := r.conns[connID]; ok {
		delete(e.rooms, sessionID)
	}
	if rs, ok := r.rooms[sessionID]; ok {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(r.rooms, sessionID)
			roomsActive.Dec()
		}
	}
}

// Detach снимает соединение целиком и возвращает комнаты, где оно состояло.
// Безопасно для неизвестного connID (вернёт nil).
func (r *Registry) Detach(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil
	}

	left := make([]string, 0, len(e.rooms))
	for sessionID := range e.rooms {
		left = append(left, sessionID)
	}
	for _, sessionID := range left {
		r.leaveLocked(connID, sessionID)
	}
	delete(r.conns, connID)
	connectionsActive.Dec()

	return left
}

// Members резолвит текущий состав комнаты. Снимок берётся в момент вызова.
func (r *Registry) Members(sessionID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[sessionID]
	if !ok {
		return nil
	}
	out := make([]Conn, 0, len(rs))
	for connID := range rs {
		if e, ok := r.conns[connID]; ok {
			out = append(out, e.conn)
		}
	}
	return out
}

func (r *Registry) Conn(connID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

func (r *Registry) IsMember(connID, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[sessionID]
	if !ok {
		return false
	}
	_, ok = rs[connID]
	return ok
}

func (r *Registry) RoomSize(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[sessionID])
}

func (r *Registry) Stats() (conns, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns), len(r.rooms)
}
