package postgres

import (
	"context"

	"github.com/peekloop/session-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ViewRepository struct {
	db *pgxpool.Pool
}

func NewViewRepository(db *pgxpool.Pool) *ViewRepository {
	return &ViewRepository{db: db}
}

func (r *ViewRepository) Insert(ctx context.Context, sessionID string, attr domain.Attribution) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO views (session_id, user_id, anonymous_id, ip_address, user_agent)
		VALUES ($1, $2, $3, NULLIF($4, '')::inet, NULLIF($5, ''))
	`, sessionID, attr.UserID, attr.AnonymousID, attr.IPAddr, attr.UserAgent)
	return err
}

// CountBySession — честный COUNT(*), не суррогат по id.
func (r *ViewRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM views WHERE session_id=$1`, sessionID).Scan(&count)
	return count, err
}
