package service

import (
	"context"

	"github.com/peekloop/session-service/internal/domain"
	"github.com/peekloop/session-service/internal/postgres"
)

// LiveStore — адаптер репозиториев под live.SessionStore: единая точка,
// через которую ядро ходит в durable-хранилище.
type LiveStore struct {
	sessionRepo  *postgres.SessionRepository
	viewRepo     *postgres.ViewRepository
	reactionRepo *postgres.ReactionRepository
}

func NewLiveStore(
	sessionRepo *postgres.SessionRepository,
	viewRepo *postgres.ViewRepository,
	reactionRepo *postgres.ReactionRepository,
) *LiveStore {
	return &LiveStore{
		sessionRepo:  sessionRepo,
		viewRepo:     viewRepo,
		reactionRepo: reactionRepo,
	}
}

func (s *LiveStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessionRepo.Get(ctx, sessionID)
}

func (s *LiveStore) InsertView(ctx context.Context, sessionID string, attr domain.Attribution) error {
	return s.viewRepo.Insert(ctx, sessionID, attr)
}

func (s *LiveStore) CountViews(ctx context.Context, sessionID string) (int64, error) {
	return s.viewRepo.CountBySession(ctx, sessionID)
}

func (s *LiveStore) InsertReaction(ctx context.Context, sessionID, emoji string, attr domain.Attribution) (*domain.Reaction, error) {
	return s.reactionRepo.Insert(ctx, sessionID, emoji, attr)
}

func (s *LiveStore) DeleteReaction(ctx context.Context, reactionID int64) (string, string, error) {
	return s.reactionRepo.Delete(ctx, reactionID)
}

func (s *LiveStore) CountReactionsByEmoji(ctx context.Context, sessionID string) (map[string]int64, error) {
	return s.reactionRepo.CountByEmoji(ctx, sessionID)
}

func (s *LiveStore) UpdateSession(ctx context.Context, sessionID string, u domain.SessionUpdate) error {
	return s.sessionRepo.Update(ctx, sessionID, u)
}
