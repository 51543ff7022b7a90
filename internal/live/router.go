package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/peekloop/session-service/internal/domain"
)

// Router — машина состояний по входящим событиям: валидация → мутация →
// вычисление fan-out → Dispatcher. Зависимости передаются явно при
// конструировании, никакого глобального broadcast-объекта.
type Router struct {
	registry   *Registry
	rooms      *RoomStore
	dispatcher *Dispatcher
}

func NewRouter(registry *Registry, rooms *RoomStore, dispatcher *Dispatcher) *Router {
	return &Router{
		registry:   registry,
		rooms:      rooms,
		dispatcher: dispatcher,
	}
}

// Connect регистрирует новое соединение (пустой набор комнат).
func (rt *Router) Connect(conn Conn) {
	rt.registry.Attach(conn)
	slog.Info("client connected", "conn", conn.ID())
}

// Join: сессия должна существовать, быть активной и не истёкшей.
// Отправителю — joined с текущими агрегатами, остальным — member-joined.
func (rt *Router) Join(ctx context.Context, connID, sessionID string) {
	eventsIn.WithLabelValues("join").Inc()
	if sessionID == "" {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}

	room, err := rt.join(ctx, connID, sessionID)
	if err != nil {
		rt.fail(connID, err)
		return
	}

	rt.dispatcher.ToConn(connID, Event{Name: EvtJoined, Payload: JoinedPayload{
		SessionID: sessionID,
		Session:   sessionInfo(room.Session()),
		Stats:     room.Snapshot(),
	}})

	// новичку — member-joined по каждому из уже присутствующих,
	// остальным — member-joined о новичке; о себе не шлём никому
	now := time.Now()
	for _, m := range rt.registry.Members(sessionID) {
		if m.ID() == connID {
			continue
		}
		rt.dispatcher.ToConn(connID, Event{Name: EvtMemberJoined, Payload: MemberPayload{
			SessionID:    sessionID,
			ConnectionID: m.ID(),
			Timestamp:    now,
		}})
	}
	rt.dispatcher.ToRoom(sessionID, connID, Event{Name: EvtMemberJoined, Payload: MemberPayload{
		SessionID:    sessionID,
		ConnectionID: connID,
		Timestamp:    now,
	}})

	slog.Info("joined session", "conn", connID, "session", sessionID)
}

func (rt *Router) Leave(ctx context.Context, connID, sessionID string) {
	eventsIn.WithLabelValues("leave").Inc()
	if !rt.registry.IsMember(connID, sessionID) {
		rt.fail(connID, domain.ErrNotInRoom)
		return
	}

	rt.registry.LeaveRoom(connID, sessionID)
	rt.dispatcher.ToRoom(sessionID, connID, Event{Name: EvtMemberLeft, Payload: MemberPayload{
		SessionID:    sessionID,
		ConnectionID: connID,
		Timestamp:    time.Now(),
	}})
	rt.evictIfEmpty(sessionID)

	slog.Info("left session", "conn", connID, "session", sessionID)
}

// View записывает просмотр и шлёт новый счётчик всей комнате,
// включая отправителя.
func (rt *Router) View(ctx context.Context, connID, sessionID string, attr domain.Attribution) {
	eventsIn.WithLabelValues("view").Inc()
	if sessionID == "" {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}

	count, err := rt.rooms.RecordView(ctx, sessionID, attr)
	if err != nil {
		rt.fail(connID, err)
		return
	}

	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtViewCount, Payload: ViewCountPayload{
		SessionID: sessionID,
		Count:     count,
	}})
}

// AddReaction: сначала reaction-added, следом reaction-counts —
// порядок событий одной мутации фиксирован.
func (rt *Router) AddReaction(ctx context.Context, connID, sessionID, emoji string, attr domain.Attribution) {
	eventsIn.WithLabelValues("reaction-add").Inc()
	if sessionID == "" || emoji == "" {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}

	reaction, tally, err := rt.rooms.AddReaction(ctx, sessionID, emoji, attr)
	if err != nil {
		rt.fail(connID, err)
		return
	}

	now := time.Now()
	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtReactionAdded, Payload: ReactionAddedPayload{
		Reaction:  reactionInfo(reaction),
		Timestamp: now,
	}})
	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtReactionCounts, Payload: ReactionCountsPayload{
		SessionID: sessionID,
		Counts:    tally,
	}})
}

func (rt *Router) RemoveReaction(ctx context.Context, connID string, reactionID int64) {
	eventsIn.WithLabelValues("reaction-remove").Inc()
	if reactionID <= 0 {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}

	sessionID, tally, err := rt.rooms.RemoveReaction(ctx, reactionID)
	if err != nil {
		rt.fail(connID, err)
		return
	}

	now := time.Now()
	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtReactionRemoved, Payload: ReactionRemovedPayload{
		ReactionID: reactionID,
		SessionID:  sessionID,
		Timestamp:  now,
	}})
	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtReactionCounts, Payload: ReactionCountsPayload{
		SessionID: sessionID,
		Counts:    tally,
	}})
}

// Presence — эфемерное событие, состояние не мутирует.
func (rt *Router) Presence(ctx context.Context, connID, sessionID, status string) {
	eventsIn.WithLabelValues("presence").Inc()
	if status != "online" && status != "offline" {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}
	if !rt.registry.IsMember(connID, sessionID) {
		rt.fail(connID, domain.ErrNotInRoom)
		return
	}

	rt.dispatcher.ToRoom(sessionID, connID, Event{Name: EvtPresenceUpdate, Payload: PresencePayload{
		SessionID:    sessionID,
		ConnectionID: connID,
		Status:       status,
		Timestamp:    time.Now(),
	}})
}

// UpdateSession применяет частичное обновление сессии от участника комнаты
// и рассылает session-updated всем, включая отправителя.
func (rt *Router) UpdateSession(ctx context.Context, connID, sessionID string, u domain.SessionUpdate) {
	eventsIn.WithLabelValues("session-update").Inc()
	if sessionID == "" || u.Empty() {
		rt.fail(connID, domain.ErrInvalidPayload)
		return
	}
	if !rt.registry.IsMember(connID, sessionID) {
		rt.fail(connID, domain.ErrNotInRoom)
		return
	}

	if err := rt.rooms.UpdateSession(ctx, sessionID, u); err != nil {
		rt.fail(connID, err)
		return
	}

	rt.dispatcher.ToRoom(sessionID, "", Event{Name: EvtSessionUpdated, Payload: SessionUpdatedPayload{
		SessionID: sessionID,
		Updates:   u,
		Timestamp: time.Now(),
	}})
}

// Disconnect снимает соединение и рассылает member-left во все комнаты,
// где оно состояло. Пустые комнаты выселяются сразу.
func (rt *Router) Disconnect(connID string) {
	eventsIn.WithLabelValues("disconnect").Inc()

	left := rt.registry.Detach(connID)
	now := time.Now()
	for _, sessionID := range left {
		rt.dispatcher.ToRoom(sessionID, connID, Event{Name: EvtMemberLeft, Payload: MemberPayload{
			SessionID:    sessionID,
			ConnectionID: connID,
			Timestamp:    now,
		}})
		rt.evictIfEmpty(sessionID)
	}

	slog.Info("client disconnected", "conn", connID, "rooms", len(left))
}

// join находит/создаёт комнату и регистрирует членство. Под lifecycle-локом:
// иначе между GetOrCreate и JoinRoom уход последнего участника успевает
// выселить комнату, и вошедший остаётся участником без агрегата.
func (rt *Router) join(ctx context.Context, connID, sessionID string) (*Room, error) {
	rt.rooms.lockLifecycle(sessionID)
	defer rt.rooms.unlockLifecycle(sessionID)

	room, err := rt.rooms.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := rt.registry.JoinRoom(connID, sessionID); err != nil {
		return nil, err
	}
	return room, nil
}

func (rt *Router) evictIfEmpty(sessionID string) {
	rt.rooms.lockLifecycle(sessionID)
	defer rt.rooms.unlockLifecycle(sessionID)

	if rt.registry.RoomSize(sessionID) == 0 {
		rt.rooms.Evict(sessionID)
	}
}

// fail — единственное уведомление об ошибке инициатору; мутация к этому
// моменту не применена, broadcast не производился.
func (rt *Router) fail(connID string, err error) {
	slog.Debug("event rejected", "conn", connID, "err", err)
	rt.dispatcher.ToConn(connID, Event{Name: EvtError, Payload: ErrorPayload{Message: err.Error()}})
}

func reactionInfo(r *domain.Reaction) ReactionInfo {
	return ReactionInfo{
		ID:          r.ID,
		SessionID:   r.SessionID,
		Emoji:       r.Emoji,
		UserID:      r.UserID,
		AnonymousID: r.AnonymousID,
		CreatedAt:   r.CreatedAt,
	}
}
