package domain

import "time"

type Reaction struct {
	ID          int64     `db:"id"`
	SessionID   string    `db:"session_id"`
	UserID      *string   `db:"user_id"`
	AnonymousID *string   `db:"anonymous_id"`
	Emoji       string    `db:"emoji"`
	CreatedAt   time.Time `db:"created_at"`
}
