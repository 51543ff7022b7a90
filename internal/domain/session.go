package domain

import "time"

type Session struct {
	ID              string    `db:"id"`
	UserID          *string   `db:"user_id"`
	AnonymousID     *string   `db:"anonymous_id"`
	MediaURL        string    `db:"media_url"`
	MediaType       string    `db:"media_type"`
	Theme           *string   `db:"theme"`
	Caption         *string   `db:"caption"`
	DurationSeconds int64     `db:"duration_seconds"`
	ExpiresAt       time.Time `db:"expires_at"`
	CreatedAt       time.Time `db:"created_at"`
	IsPublic        bool      `db:"is_public"`
	IsActive        bool      `db:"is_active"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionUpdate — частичное обновление, которое разрешено пушить по сокету.
type SessionUpdate struct {
	Caption  *string `json:"caption,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (u SessionUpdate) Empty() bool {
	return u.Caption == nil && u.Theme == nil && u.IsActive == nil
}
