package live

import (
	"context"
	"log/slog"
	"time"
)

// Reaper — фоновая зачистка истёкших комнат. Крутится отдельной задачей,
// Router не блокирует; выселение идёт под тем же lifecycle-локом, что и
// вход в комнату.
type Reaper struct {
	rooms      *RoomStore
	registry   *Registry
	dispatcher *Dispatcher
	interval   time.Duration
}

func NewReaper(rooms *RoomStore, registry *Registry, dispatcher *Dispatcher, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		rooms:      rooms,
		registry:   registry,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Sweep: оставшимся участникам — session-expired, затем отписка в Registry
// и выселение из кэша.
func (r *Reaper) Sweep(now time.Time) {
	for _, room := range r.rooms.Expired(now) {
		sessionID := room.SessionID()

		r.dispatcher.ToRoom(sessionID, "", Event{
			Name:    EvtSessionExpired,
			Payload: SessionExpiredPayload{SessionID: sessionID},
		})

		r.rooms.lockLifecycle(sessionID)
		for _, c := range r.registry.Members(sessionID) {
			r.registry.LeaveRoom(c.ID(), sessionID)
		}
		r.rooms.Evict(sessionID)
		r.rooms.unlockLifecycle(sessionID)
		roomsReaped.Inc()

		slog.Info("session reaped", "session", sessionID, "expired_at", room.ExpiresAt())
	}
}
