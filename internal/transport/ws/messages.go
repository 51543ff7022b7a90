package ws

import (
	"encoding/json"

	"github.com/peekloop/session-service/internal/domain"
)

// Входящие типы событий. Исходящие определены в live/events.go.
const (
	MsgJoin           = "join"
	MsgLeave          = "leave"
	MsgView           = "view"
	MsgReactionAdd    = "reaction-add"
	MsgReactionRemove = "reaction-remove"
	MsgPresence       = "presence"
	MsgSessionUpdate  = "session-update"
	MsgPing           = "ping"
)

// Message — рамка входящего сообщения; payload декодируется по типу.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinRequest struct {
	SessionID string `json:"sessionId"`
}

type LeaveRequest struct {
	SessionID string `json:"sessionId"`
}

type ViewRequest struct {
	SessionID   string  `json:"sessionId"`
	UserID      *string `json:"userId,omitempty"`
	AnonymousID *string `json:"anonymousId,omitempty"`
}

type ReactionAddRequest struct {
	SessionID   string  `json:"sessionId"`
	Emoji       string  `json:"emoji"`
	UserID      *string `json:"userId,omitempty"`
	AnonymousID *string `json:"anonymousId,omitempty"`
}

type ReactionRemoveRequest struct {
	ReactionID int64 `json:"reactionId"`
}

type PresenceRequest struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"` // online|offline
}

type SessionUpdateRequest struct {
	SessionID string               `json:"sessionId"`
	Updates   domain.SessionUpdate `json:"updates"`
}
