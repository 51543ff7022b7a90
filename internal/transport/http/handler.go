package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/peekloop/session-service/internal/domain"
	"github.com/peekloop/session-service/internal/postgres"
	"github.com/peekloop/session-service/internal/service"
	httpmw "github.com/peekloop/session-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type Handler struct {
	sessionSvc *service.SessionService
}

func NewHandler(sessionSvc *service.SessionService) *Handler {
	return &Handler{sessionSvc: sessionSvc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	sess, err := h.sessionSvc.CreateSession(r.Context(), service.CreateSessionInput{
		UserID:          httpmw.UserIDFromCtx(r.Context()),
		AnonymousID:     httpmw.AnonymousIDFromCtx(r.Context()),
		MediaURL:        req.MediaURL,
		MediaType:       req.MediaType,
		Theme:           req.Theme,
		Caption:         req.Caption,
		DurationSeconds: req.DurationSeconds,
		IsPublic:        isPublic,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPayload) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("handler.CreateSession:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Session: sessionItem(*sess)})
}

// GET /sessions?limit=&cursor=
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	sessions, next, err := h.sessionSvc.ListSessions(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListSessions:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, SessionsListResponse{
		Items:      lo.Map(sessions, func(s domain.Session, _ int) SessionItem { return sessionItem(s) }),
		NextCursor: next,
	})
}

// GET /sessions/{id} — сессия плюс durable-статистика.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, stats, err := h.sessionSvc.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found"})
			return
		}
		slog.Error("handler.GetSession:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Session: sessionItem(*sess),
		Stats: &SessionStatsItem{
			Views:     stats.Views,
			Reactions: stats.Reactions,
		},
	})
}

// DELETE /sessions/{id} — деактивация (мягкая: is_active=false).
func (h *Handler) DeactivateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.sessionSvc.DeactivateSession(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found"})
			return
		}
		slog.Error("handler.DeactivateSession:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func sessionItem(s domain.Session) SessionItem {
	return SessionItem{
		ID:              s.ID,
		MediaURL:        s.MediaURL,
		MediaType:       s.MediaType,
		Theme:           s.Theme,
		Caption:         s.Caption,
		DurationSeconds: s.DurationSeconds,
		ExpiresAt:       s.ExpiresAt,
		CreatedAt:       s.CreatedAt,
		IsPublic:        s.IsPublic,
		IsActive:        s.IsActive,
	}
}
