package live

import (
	"context"
	"sync"
	"time"

	"github.com/peekloop/session-service/internal/domain"
)

type mockConn struct {
	id string

	mu      sync.Mutex
	events  []Event
	sendErr error
	closed  bool
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) received() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockConn) names() []string {
	evts := m.received()
	out := make([]string, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.Name)
	}
	return out
}

func (m *mockConn) countByName(name string) int {
	n := 0
	for _, e := range m.received() {
		if e.Name == name {
			n++
		}
	}
	return n
}

// fakeStore — in-memory реализация SessionStore для тестов ядра.
type fakeStore struct {
	mu             sync.Mutex
	sessions       map[string]domain.Session
	views          map[string]int64
	reactions      map[int64]domain.Reaction
	nextReactionID int64

	getSessionErr     error
	insertViewErr     error
	insertReactionErr error
	updateErr         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[string]domain.Session),
		views:     make(map[string]int64),
		reactions: make(map[int64]domain.Reaction),
	}
}

func (f *fakeStore) addSession(id string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = domain.Session{
		ID:        id,
		MediaURL:  "https://cdn.example/" + id + ".mp4",
		MediaType: "video/mp4",
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
		IsPublic:  true,
		IsActive:  true,
	}
}

func (f *fakeStore) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeStore) InsertView(_ context.Context, sessionID string, _ domain.Attribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertViewErr != nil {
		return f.insertViewErr
	}
	f.views[sessionID]++
	return nil
}

func (f *fakeStore) CountViews(_ context.Context, sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[sessionID], nil
}

func (f *fakeStore) InsertReaction(_ context.Context, sessionID, emoji string, attr domain.Attribution) (*domain.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertReactionErr != nil {
		return nil, f.insertReactionErr
	}
	f.nextReactionID++
	re := domain.Reaction{
		ID:          f.nextReactionID,
		SessionID:   sessionID,
		Emoji:       emoji,
		UserID:      attr.UserID,
		AnonymousID: attr.AnonymousID,
		CreatedAt:   time.Now(),
	}
	f.reactions[re.ID] = re
	return &re, nil
}

func (f *fakeStore) DeleteReaction(_ context.Context, reactionID int64) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	re, ok := f.reactions[reactionID]
	if !ok {
		return "", "", domain.ErrReactionNotFound
	}
	delete(f.reactions, reactionID)
	return re.SessionID, re.Emoji, nil
}

func (f *fakeStore) CountReactionsByEmoji(_ context.Context, sessionID string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, re := range f.reactions {
		if re.SessionID == sessionID {
			out[re.Emoji]++
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSession(_ context.Context, sessionID string, u domain.SessionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if u.Caption != nil {
		s.Caption = u.Caption
	}
	if u.Theme != nil {
		s.Theme = u.Theme
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	f.sessions[sessionID] = s
	return nil
}
