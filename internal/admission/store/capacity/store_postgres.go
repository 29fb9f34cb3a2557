package capacity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

// PostgresStore persists per-match capacity ceilings.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetLimit(ctx context.Context, match id.MatchRef) (*models.CapacityLimit, error) {
	const query = `
		SELECT attendance_limit FROM capacity_limits
		WHERE match_id = $1 AND match_kind = $2`

	var limit int
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(match.ID), match.Kind.String()).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get capacity limit: %w", err)
	}
	return &models.CapacityLimit{Match: match, Limit: limit}, nil
}

func (s *PostgresStore) SetLimit(ctx context.Context, limit *models.CapacityLimit) error {
	const query = `
		INSERT INTO capacity_limits (match_id, match_kind, attendance_limit)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, match_kind) DO UPDATE SET attendance_limit = EXCLUDED.attendance_limit`

	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(limit.Match.ID), limit.Match.Kind.String(), limit.Limit); err != nil {
		return fmt.Errorf("set capacity limit: %w", err)
	}
	return nil
}
