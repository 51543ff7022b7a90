package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekloop/session-service/internal/domain"
)

func newTestRouter(store *fakeStore) (*Router, *Registry, *RoomStore) {
	registry := NewRegistry()
	rooms := NewRoomStore(store, time.Second)
	return NewRouter(registry, rooms, NewDispatcher(registry)), registry, rooms
}

func join(t *testing.T, rt *Router, registry *Registry, id, sessionID string) *mockConn {
	t.Helper()
	c := &mockConn{id: id}
	rt.Connect(c)
	rt.Join(context.Background(), id, sessionID)
	require.True(t, registry.IsMember(id, sessionID), "join must have succeeded")
	return c
}

func TestRouter_JoinSendsStatsAndNotifiesOthers(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	// отправителю — joined с нулевыми агрегатами
	evts := c1.received()
	require.NotEmpty(t, evts)
	require.Equal(t, EvtJoined, evts[0].Name)
	joined := evts[0].Payload.(JoinedPayload)
	assert.Equal(t, "s1", joined.SessionID)
	assert.Equal(t, int64(0), joined.Stats.Views)
	assert.Empty(t, joined.Stats.Reactions)

	// каждый получает member-joined о другом и никогда о себе
	require.Equal(t, 1, c1.countByName(EvtMemberJoined))
	require.Equal(t, 1, c2.countByName(EvtMemberJoined))
	assert.Equal(t, "c2", c1.received()[1].Payload.(MemberPayload).ConnectionID)
	assert.Equal(t, "c1", c2.received()[1].Payload.(MemberPayload).ConnectionID)
}

func TestRouter_JoinFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*fakeStore)
		sessionID string
		wantMsg   string
	}{
		{
			name:      "unknown session",
			setup:     func(s *fakeStore) {},
			sessionID: "nope",
			wantMsg:   domain.ErrSessionNotFound.Error(),
		},
		{
			name:      "expired session",
			setup:     func(s *fakeStore) { s.addSession("s1", -time.Minute) },
			sessionID: "s1",
			wantMsg:   domain.ErrSessionExpired.Error(),
		},
		{
			name:      "empty session id",
			setup:     func(s *fakeStore) {},
			sessionID: "",
			wantMsg:   domain.ErrInvalidPayload.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			tt.setup(store)
			rt, registry, rooms := newTestRouter(store)

			c := &mockConn{id: "c1"}
			rt.Connect(c)
			rt.Join(context.Background(), "c1", tt.sessionID)

			// единственное уведомление об ошибке, комната не создана
			evts := c.received()
			require.Len(t, evts, 1)
			assert.Equal(t, EvtError, evts[0].Name)
			assert.Equal(t, tt.wantMsg, evts[0].Payload.(ErrorPayload).Message)
			assert.Equal(t, 0, rooms.Len())
			assert.False(t, registry.IsMember("c1", tt.sessionID))
		})
	}
}

func TestRouter_ViewCountToWholeRoomOnce(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	rt.View(context.Background(), "c1", "s1", domain.Attribution{})

	for _, c := range []*mockConn{c1, c2} {
		assert.Equal(t, 1, c.countByName(EvtViewCount), "conn %s", c.ID())
		for _, e := range c.received() {
			if e.Name == EvtViewCount {
				assert.Equal(t, int64(1), e.Payload.(ViewCountPayload).Count)
			}
		}
	}
}

func TestRouter_ReactionAddSequence(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")

	rt.AddReaction(context.Background(), "c1", "s1", "👍", domain.Attribution{})

	// joined, затем reaction-added, затем reaction-counts — порядок фиксирован
	names := c1.names()
	require.Equal(t, []string{EvtJoined, EvtReactionAdded, EvtReactionCounts}, names)

	added := c1.received()[1].Payload.(ReactionAddedPayload)
	assert.Equal(t, "👍", added.Reaction.Emoji)
	counts := c1.received()[2].Payload.(ReactionCountsPayload)
	assert.Equal(t, map[string]int64{"👍": 1}, counts.Counts)
}

func TestRouter_ReactionRemove(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	rt.AddReaction(context.Background(), "c1", "s1", "👍", domain.Attribution{})

	rt.RemoveReaction(context.Background(), "c1", 1)

	names := c1.names()
	require.Equal(t, []string{
		EvtJoined, EvtReactionAdded, EvtReactionCounts,
		EvtReactionRemoved, EvtReactionCounts,
	}, names)

	removed := c1.received()[3].Payload.(ReactionRemovedPayload)
	assert.Equal(t, int64(1), removed.ReactionID)
	assert.Equal(t, "s1", removed.SessionID)
	counts := c1.received()[4].Payload.(ReactionCountsPayload)
	assert.Empty(t, counts.Counts)
}

func TestRouter_ReactionRemove_Unknown(t *testing.T) {
	store := newFakeStore()
	rt, _, _ := newTestRouter(store)

	c := &mockConn{id: "c1"}
	rt.Connect(c)
	rt.RemoveReaction(context.Background(), "c1", 404)

	evts := c.received()
	require.Len(t, evts, 1)
	assert.Equal(t, EvtError, evts[0].Name)
	assert.Equal(t, domain.ErrReactionNotFound.Error(), evts[0].Payload.(ErrorPayload).Message)
}

func TestRouter_PresenceExcludesSender(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	rt.Presence(context.Background(), "c1", "s1", "online")

	assert.Equal(t, 0, c1.countByName(EvtPresenceUpdate))
	require.Equal(t, 1, c2.countByName(EvtPresenceUpdate))
	for _, e := range c2.received() {
		if e.Name == EvtPresenceUpdate {
			p := e.Payload.(PresencePayload)
			assert.Equal(t, "c1", p.ConnectionID)
			assert.Equal(t, "online", p.Status)
		}
	}
}

func TestRouter_PresenceRequiresMembership(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	join(t, rt, registry, "c1", "s1")
	outsider := &mockConn{id: "out"}
	rt.Connect(outsider)

	rt.Presence(context.Background(), "out", "s1", "online")

	evts := outsider.received()
	require.Len(t, evts, 1)
	assert.Equal(t, EvtError, evts[0].Name)
}

func TestRouter_LeaveNotifiesAndEvictsEmptyRoom(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, rooms := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	rt.Leave(context.Background(), "c2", "s1")
	require.Equal(t, 1, c1.countByName(EvtMemberLeft))
	assert.Equal(t, 0, c2.countByName(EvtMemberLeft))
	assert.Equal(t, 1, rooms.Len())

	rt.Leave(context.Background(), "c1", "s1")
	assert.Equal(t, 0, rooms.Len(), "empty room must be evicted")
}

func TestRouter_DisconnectNotifiesEveryRoom(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	store.addSession("s2", time.Minute)
	rt, registry, rooms := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	rt.Join(context.Background(), "c1", "s2")
	w1 := join(t, rt, registry, "w1", "s1")
	w2 := join(t, rt, registry, "w2", "s2")

	rt.Disconnect("c1")

	assert.Equal(t, 1, w1.countByName(EvtMemberLeft))
	assert.Equal(t, 1, w2.countByName(EvtMemberLeft))
	assert.Equal(t, 0, c1.countByName(EvtMemberLeft), "disconnected conn gets nothing")

	conns, _ := registry.Stats()
	assert.Equal(t, 2, conns)
	assert.Equal(t, 2, rooms.Len(), "rooms with remaining members stay")
}

func TestRouter_DisconnectLastMemberEvictsRooms(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, rooms := newTestRouter(store)

	join(t, rt, registry, "c1", "s1")
	rt.Disconnect("c1")

	assert.Equal(t, 0, rooms.Len())
	assert.Equal(t, 0, registry.RoomSize("s1"))
}

func TestRouter_SessionUpdateBroadcast(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	caption := "final cut"
	rt.UpdateSession(context.Background(), "c1", "s1", domain.SessionUpdate{Caption: &caption})

	for _, c := range []*mockConn{c1, c2} {
		require.Equal(t, 1, c.countByName(EvtSessionUpdated), "conn %s", c.ID())
	}
	// durable-запись применена
	sess, err := store.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.Caption)
	assert.Equal(t, caption, *sess.Caption)
}

func TestRouter_StoreFailureReportsToOriginOnly(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	c1 := join(t, rt, registry, "c1", "s1")
	c2 := join(t, rt, registry, "c2", "s1")

	store.insertViewErr = errors.New("pg down")
	rt.View(context.Background(), "c1", "s1", domain.Attribution{})

	assert.Equal(t, 0, c1.countByName(EvtViewCount))
	assert.Equal(t, 0, c2.countByName(EvtViewCount))
	assert.Equal(t, 1, c1.countByName(EvtError))
	assert.Equal(t, 0, c2.countByName(EvtError))
}

func TestRouter_DeadMemberDoesNotBreakFanout(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Minute)
	rt, registry, _ := newTestRouter(store)

	join(t, rt, registry, "c1", "s1")
	dead := join(t, rt, registry, "dead", "s1")
	dead.mu.Lock()
	dead.sendErr = errors.New("broken pipe")
	dead.mu.Unlock()
	c3 := join(t, rt, registry, "c3", "s1")

	rt.View(context.Background(), "c1", "s1", domain.Attribution{})

	assert.Equal(t, 1, c3.countByName(EvtViewCount), "delivery must continue past dead sockets")
}

// Уход последнего участника, гоняющийся с чужим входом: членство без
// кэшированной комнаты означало бы session not found на каждом
// последующем view/reaction валидной сессии.
func TestRouter_JoinAgainstLastLeave_MemberKeepsRoom(t *testing.T) {
	store := newFakeStore()
	store.addSession("s1", time.Hour)
	rt, registry, rooms := newTestRouter(store)

	rt.Connect(&mockConn{id: "churner"})
	rt.Connect(&mockConn{id: "victim"})

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 300 {
			rt.Join(ctx, "churner", "s1")
			rt.Leave(ctx, "churner", "s1")
		}
	}()

	for range 300 {
		rt.Join(ctx, "victim", "s1")
		require.True(t, registry.IsMember("victim", "s1"))
		if _, ok := rooms.Get("s1"); !ok {
			t.Fatal("member of s1, but the room aggregate is evicted")
		}
		_, err := rooms.RecordView(ctx, "s1", domain.Attribution{})
		require.NoError(t, err)
		rt.Leave(ctx, "victim", "s1")
	}
	<-done
}
