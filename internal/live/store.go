package live

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/peekloop/session-service/internal/domain"
)

// SessionStore — durable-хранилище, каким его видит ядро.
// Реализация — postgres-репозитории (см. service.LiveStore).
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	InsertView(ctx context.Context, sessionID string, attr domain.Attribution) error
	CountViews(ctx context.Context, sessionID string) (int64, error)
	InsertReaction(ctx context.Context, sessionID, emoji string, attr domain.Attribution) (*domain.Reaction, error)
	DeleteReaction(ctx context.Context, reactionID int64) (sessionID, emoji string, err error)
	CountReactionsByEmoji(ctx context.Context, sessionID string) (map[string]int64, error)
	UpdateSession(ctx context.Context, sessionID string, u domain.SessionUpdate) error
}

// RoomStore кэширует Room-агрегаты по sessionID.
// Дисциплина: durable-запись — до обновления кэша; мутации одной сессии
// сериализованы через room.mu, разные сессии друг друга не блокируют.
type RoomStore struct {
	store   SessionStore
	timeout time.Duration

	mu     sync.RWMutex
	rooms  map[string]*Room
	flight singleflight.Group

	life keyedMutex // вход в комнату против её выселения, по sessionID
}

// lockLifecycle сериализует создание комнаты и вход в неё с выселением
// той же комнаты. Без этого уход последнего участника может выселить
// агрегат посреди чужого входа, оставив участника без комнаты.
func (s *RoomStore) lockLifecycle(sessionID string)   { s.life.lock(sessionID) }
func (s *RoomStore) unlockLifecycle(sessionID string) { s.life.unlock(sessionID) }

func NewRoomStore(store SessionStore, storeTimeout time.Duration) *RoomStore {
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &RoomStore{
		store:   store,
		timeout: storeTimeout,
		rooms:   make(map[string]*Room),
	}
}

// GetOrCreate возвращает кэшированный Room; при промахе инициализирует его
// durable-счётчиками. Параллельные промахи по одной сессии схлопываются
// в один запрос (singleflight).
func (s *RoomStore) GetOrCreate(ctx context.Context, sessionID string) (*Room, error) {
	if room, ok := s.Get(sessionID); ok {
		if room.Expired(time.Now()) {
			return nil, domain.ErrSessionExpired
		}
		return room, nil
	}

	v, err, _ := s.flight.Do(sessionID, func() (any, error) {
		if room, ok := s.Get(sessionID); ok {
			return room, nil
		}
		return s.load(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}

	room := v.(*Room)
	if room.Expired(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	return room, nil
}

func (s *RoomStore) load(ctx context.Context, sessionID string) (*Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !sess.IsActive {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Expired(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	views, err := s.store.CountViews(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	tally, err := s.store.CountReactionsByEmoji(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}

	room := newRoom(*sess, views, tally)

	s.mu.Lock()
	s.rooms[sessionID] = room
	s.mu.Unlock()

	return room, nil
}

func (s *RoomStore) Get(sessionID string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[sessionID]
	return room, ok
}

// RecordView инкрементирует счётчик просмотров. Durable-запись — первой;
// упала — кэш не трогаем.
func (s *RoomStore) RecordView(ctx context.Context, sessionID string, attr domain.Attribution) (int64, error) {
	room, ok := s.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.InsertView(ctx, sessionID, attr); err != nil {
		return 0, storeErr(err)
	}
	room.viewCount++

	return room.viewCount, nil
}

// AddReaction сохраняет реакцию и возвращает запись плюс полный tally.
func (s *RoomStore) AddReaction(ctx context.Context, sessionID, emoji string, attr domain.Attribution) (*domain.Reaction, map[string]int64, error) {
	room, ok := s.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reaction, err := s.store.InsertReaction(ctx, sessionID, emoji, attr)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	room.tally[emoji]++

	return reaction, maps.Clone(room.tally), nil
}

// RemoveReaction удаляет durable-запись (hard delete) и декрементирует
// кэшированный tally. Сессию узнаём из самой записи.
func (s *RoomStore) RemoveReaction(ctx context.Context, reactionID int64) (string, map[string]int64, error) {
	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sessionID, emoji, err := s.store.DeleteReaction(dctx, reactionID)
	if err != nil {
		return "", nil, storeErr(err)
	}

	room, ok := s.Get(sessionID)
	if !ok {
		// комнаты в кэше нет — пересчитываем из store
		cctx, ccancel := context.WithTimeout(ctx, s.timeout)
		defer ccancel()
		tally, err := s.store.CountReactionsByEmoji(cctx, sessionID)
		if err != nil {
			return sessionID, nil, storeErr(err)
		}
		return sessionID, tally, nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.tally[emoji] > 0 {
		room.tally[emoji]--
	}
	if room.tally[emoji] == 0 {
		delete(room.tally, emoji)
	}

	return sessionID, maps.Clone(room.tally), nil
}

// UpdateSession применяет частичное обновление: сначала durable, потом кэш.
func (s *RoomStore) UpdateSession(ctx context.Context, sessionID string, u domain.SessionUpdate) error {
	room, ok := s.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.UpdateSession(ctx, sessionID, u); err != nil {
		return storeErr(err)
	}
	room.applyUpdate(u)

	return nil
}

// Evict выбрасывает агрегат из кэша. In-flight мутация держит свою ссылку
// на Room и доработает под его mu; следующий GetOrCreate перечитает
// durable-счётчики, включая её запись.
func (s *RoomStore) Evict(sessionID string) {
	s.mu.Lock()
	delete(s.rooms, sessionID)
	s.mu.Unlock()
}

// Expired возвращает комнаты с истёкшим expiresAt (для рипера).
func (s *RoomStore) Expired(now time.Time) []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Room
	for _, room := range s.rooms {
		if room.Expired(now) {
			out = append(out, room)
		}
	}
	return out
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// storeErr маппит не-доменные ошибки (таймаут, обрыв коннекта к базе)
// в ErrStoreUnavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrReactionNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}
