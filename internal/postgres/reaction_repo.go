package postgres

import (
	"context"
	"errors"

	"github.com/peekloop/session-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReactionRepository struct {
	db *pgxpool.Pool
}

func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

func (r *ReactionRepository) Insert(ctx context.Context, sessionID, emoji string, attr domain.Attribution) (*domain.Reaction, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO reactions (session_id, user_id, anonymous_id, emoji, ip_address)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::inet)
		RETURNING id, session_id, user_id, anonymous_id, emoji, created_at
	`, sessionID, attr.UserID, attr.AnonymousID, emoji, attr.IPAddr)

	var re domain.Reaction
	if err := row.Scan(&re.ID, &re.SessionID, &re.UserID, &re.AnonymousID, &re.Emoji, &re.CreatedAt); err != nil {
		return nil, err
	}
	return &re, nil
}

// Delete — hard delete; возвращает сессию и emoji удалённой записи.
func (r *ReactionRepository) Delete(ctx context.Context, reactionID int64) (sessionID, emoji string, err error) {
	err = r.db.QueryRow(ctx, `
		DELETE FROM reactions WHERE id=$1
		RETURNING session_id, emoji
	`, reactionID).Scan(&sessionID, &emoji)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", domain.ErrReactionNotFound
		}
		return "", "", err
	}
	return sessionID, emoji, nil
}

// CountByEmoji — группировка честным COUNT(*) по emoji.
func (r *ReactionRepository) CountByEmoji(ctx context.Context, sessionID string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT emoji, COUNT(*)
		FROM reactions
		WHERE session_id=$1
		GROUP BY emoji
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var emoji string
		var count int64
		if err := rows.Scan(&emoji, &count); err != nil {
			return nil, err
		}
		out[emoji] = count
	}
	return out, rows.Err()
}
