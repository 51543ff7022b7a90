package live

import (
	"maps"
	"sync"
	"time"

	"github.com/peekloop/session-service/internal/domain"
)

// Room — in-memory агрегат одной активной сессии. Кэш поверх Persistent
// Store: перечитывается при создании, durable-счётчики первичны.
// Все мутации идут через RoomStore под room.mu.
type Room struct {
	mu sync.Mutex

	session   domain.Session
	viewCount int64
	tally     map[string]int64
}

func newRoom(s domain.Session, views int64, tally map[string]int64) *Room {
	if tally == nil {
		tally = make(map[string]int64)
	}
	return &Room{
		session:   s,
		viewCount: views,
		tally:     tally,
	}
}

func (r *Room) SessionID() string { return r.session.ID }

func (r *Room) ExpiresAt() time.Time { return r.session.ExpiresAt }

func (r *Room) Expired(now time.Time) bool {
	return r.session.Expired(now)
}

func (r *Room) Session() domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Snapshot возвращает текущие агрегаты (копию — tally наружу не шарим).
func (r *Room) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Views:     r.viewCount,
		Reactions: maps.Clone(r.tally),
	}
}

func (r *Room) applyUpdate(u domain.SessionUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Caption != nil {
		r.session.Caption = u.Caption
	}
	if u.Theme != nil {
		r.session.Theme = u.Theme
	}
	if u.IsActive != nil {
		r.session.IsActive = *u.IsActive
	}
}
