package live

import (
	"time"

	"github.com/peekloop/session-service/internal/domain"
)

// Исходящие события. Набор закрытый: на каждое имя — свой payload-тип,
// произвольных мешков полей нет.
const (
	EvtJoined          = "joined"
	EvtMemberJoined    = "member-joined"
	EvtMemberLeft      = "member-left"
	EvtViewCount       = "view-count"
	EvtReactionAdded   = "reaction-added"
	EvtReactionCounts  = "reaction-counts"
	EvtReactionRemoved = "reaction-removed"
	EvtPresenceUpdate  = "presence-update"
	EvtSessionUpdated  = "session-updated"
	EvtSessionExpired  = "session-expired"
	EvtError           = "error"
	EvtPong            = "pong"
)

type Event struct {
	Name    string `json:"type"`
	Payload any    `json:"payload"`
}

// Stats — агрегаты сессии на момент входа.
type Stats struct {
	Views     int64            `json:"views"`
	Reactions map[string]int64 `json:"reactions"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	MediaURL  string    `json:"mediaUrl"`
	MediaType string    `json:"mediaType"`
	Theme     *string   `json:"theme,omitempty"`
	Caption   *string   `json:"caption,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func sessionInfo(s domain.Session) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		MediaURL:  s.MediaURL,
		MediaType: s.MediaType,
		Theme:     s.Theme,
		Caption:   s.Caption,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}

type JoinedPayload struct {
	SessionID string      `json:"sessionId"`
	Session   SessionInfo `json:"session"`
	Stats     Stats       `json:"stats"`
}

type MemberPayload struct {
	SessionID    string    `json:"sessionId"`
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

type ViewCountPayload struct {
	SessionID string `json:"sessionId"`
	Count     int64  `json:"count"`
}

type ReactionInfo struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"sessionId"`
	Emoji       string    `json:"emoji"`
	UserID      *string   `json:"userId,omitempty"`
	AnonymousID *string   `json:"anonymousId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ReactionAddedPayload struct {
	Reaction  ReactionInfo `json:"reaction"`
	Timestamp time.Time    `json:"timestamp"`
}

type ReactionCountsPayload struct {
	SessionID string           `json:"sessionId"`
	Counts    map[string]int64 `json:"counts"`
}

type ReactionRemovedPayload struct {
	ReactionID int64     `json:"reactionId"`
	SessionID  string    `json:"sessionId"`
	Timestamp  time.Time `json:"timestamp"`
}

type PresencePayload struct {
	SessionID    string    `json:"sessionId"`
	ConnectionID string    `json:"connectionId"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

type SessionUpdatedPayload struct {
	SessionID string               `json:"sessionId"`
	Updates   domain.SessionUpdate `json:"updates"`
	Timestamp time.Time            `json:"timestamp"`
}

type SessionExpiredPayload struct {
	SessionID string `json:"sessionId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

func Pong(now time.Time) Event {
	return Event{Name: EvtPong, Payload: PongPayload{Timestamp: now}}
}
