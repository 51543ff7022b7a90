package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateSessionRequest struct {
	MediaURL        string  `json:"mediaUrl"`
	MediaType       string  `json:"mediaType"`
	Theme           *string `json:"theme,omitempty"`
	Caption         *string `json:"caption,omitempty"`
	DurationSeconds int64   `json:"durationSeconds,omitempty"`
	IsPublic        *bool   `json:"isPublic,omitempty"`
}

type SessionItem struct {
	ID              string    `json:"id"`
	MediaURL        string    `json:"mediaUrl"`
	MediaType       string    `json:"mediaType"`
	Theme           *string   `json:"theme,omitempty"`
	Caption         *string   `json:"caption,omitempty"`
	DurationSeconds int64     `json:"durationSeconds"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
	IsPublic        bool      `json:"isPublic"`
	IsActive        bool      `json:"isActive"`
}

type SessionStatsItem struct {
	Views     int64            `json:"views"`
	Reactions map[string]int64 `json:"reactions"`
}

type SessionResponse struct {
	Session SessionItem       `json:"session"`
	Stats   *SessionStatsItem `json:"stats,omitempty"`
}

type SessionsListResponse struct {
	Items      []SessionItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Connections int       `json:"activeConnections"`
	Rooms       int       `json:"activeRooms"`
}
