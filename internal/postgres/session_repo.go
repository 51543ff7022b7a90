package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/peekloop/session-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, anonymous_id, media_url, media_type, theme, caption,
	duration_seconds, expires_at, created_at, is_public, is_active`

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (user_id, anonymous_id, media_url, media_type, theme, caption,
		                      duration_seconds, expires_at, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now() + ($7::bigint * INTERVAL '1 second'), $8)
		RETURNING id, expires_at, created_at, is_active`
	return r.db.QueryRow(ctx, query,
		s.UserID, s.AnonymousID, s.MediaURL, s.MediaType, s.Theme, s.Caption,
		s.DurationSeconds, s.IsPublic,
	).Scan(&s.ID, &s.ExpiresAt, &s.CreatedAt, &s.IsActive)
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.AnonymousID, &s.MediaURL, &s.MediaType, &s.Theme, &s.Caption,
		&s.DurationSeconds, &s.ExpiresAt, &s.CreatedAt, &s.IsPublic, &s.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List возвращает активные публичные неистёкшие сессии, новые первыми,
// с курсорной пагинацией.
func (r *SessionRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Session, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE is_active AND is_public AND expires_at > now()
		  AND ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.AnonymousID, &s.MediaURL, &s.MediaType, &s.Theme, &s.Caption,
			&s.DurationSeconds, &s.ExpiresAt, &s.CreatedAt, &s.IsPublic, &s.IsActive,
		); err != nil {
			return nil, "", err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(sessions) == limit {
		last := sessions[len(sessions)-1]
		nextCursor, _ = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return sessions, nextCursor, nil
}

// Update применяет частичное обновление (caption/theme/is_active).
func (r *SessionRepository) Update(ctx context.Context, id string, u domain.SessionUpdate) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if u.Caption != nil {
		args = append(args, *u.Caption)
		sets = append(sets, "caption=$"+strconv.Itoa(len(args)))
	}
	if u.Theme != nil {
		args = append(args, *u.Theme)
		sets = append(sets, "theme=$"+strconv.Itoa(len(args)))
	}
	if u.IsActive != nil {
		args = append(args, *u.IsActive)
		sets = append(sets, "is_active=$"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := `UPDATE sessions SET ` + strings.Join(sets, ", ") + ` WHERE id=$` + strconv.Itoa(len(args))
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE sessions SET is_active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
