package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peekloop/session-service/internal/domain"
	"github.com/peekloop/session-service/internal/postgres"
)

const (
	defaultDurationSeconds = 180
	maxDurationSeconds     = 24 * 60 * 60
)

type SessionService struct {
	sessionRepo  *postgres.SessionRepository
	viewRepo     *postgres.ViewRepository
	reactionRepo *postgres.ReactionRepository
}

func NewSessionService(
	sessionRepo *postgres.SessionRepository,
	viewRepo *postgres.ViewRepository,
	reactionRepo *postgres.ReactionRepository,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		viewRepo:     viewRepo,
		reactionRepo: reactionRepo,
	}
}

type CreateSessionInput struct {
	UserID          *string
	AnonymousID     *string
	MediaURL        string
	MediaType       string
	Theme           *string
	Caption         *string
	DurationSeconds int64
	IsPublic        bool
}

// CreateSession создаёт сессию; expires_at считается от duration
// (дефолт 180 секунд).
func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*domain.Session, error) {
	in.MediaURL = strings.TrimSpace(in.MediaURL)
	in.MediaType = strings.TrimSpace(in.MediaType)
	if in.MediaURL == "" || in.MediaType == "" {
		return nil, fmt.Errorf("%w: mediaUrl and mediaType are required", domain.ErrInvalidPayload)
	}
	if in.DurationSeconds <= 0 {
		in.DurationSeconds = defaultDurationSeconds
	}
	if in.DurationSeconds > maxDurationSeconds {
		in.DurationSeconds = maxDurationSeconds
	}

	sess := &domain.Session{
		UserID:          in.UserID,
		AnonymousID:     in.AnonymousID,
		MediaURL:        in.MediaURL,
		MediaType:       in.MediaType,
		Theme:           in.Theme,
		Caption:         in.Caption,
		DurationSeconds: in.DurationSeconds,
		IsPublic:        in.IsPublic,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("sessionRepo.Create: %w", err)
	}
	return sess, nil
}

type SessionStats struct {
	Views     int64
	Reactions map[string]int64
}

// GetSession возвращает сессию вместе с durable-агрегатами.
func (s *SessionService) GetSession(ctx context.Context, id string) (*domain.Session, *SessionStats, error) {
	sess, err := s.sessionRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	views, err := s.viewRepo.CountBySession(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("viewRepo.CountBySession: %w", err)
	}
	reactions, err := s.reactionRepo.CountByEmoji(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("reactionRepo.CountByEmoji: %w", err)
	}

	return sess, &SessionStats{Views: views, Reactions: reactions}, nil
}

// ListSessions — активные публичные сессии с курсорной пагинацией.
func (s *SessionService) ListSessions(ctx context.Context, limit int, cursor string) ([]domain.Session, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.sessionRepo.List(ctx, limit, cursor)
}

func (s *SessionService) DeactivateSession(ctx context.Context, id string) error {
	err := s.sessionRepo.Deactivate(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("sessionRepo.Deactivate: %w", err)
	}
	return err
}
