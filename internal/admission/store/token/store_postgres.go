package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// PostgresStore persists the token→request binding. The unique constraint on
// request_id enforces the zero-or-one token per request relationship.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, token *models.AdmissionToken) error {
	const query = `
		INSERT INTO admission_tokens (token, request_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, token.Token, uuid.UUID(token.RequestID))
	if err != nil {
		return fmt.Errorf("save admission token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save admission token: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %s already has a token: %w", token.RequestID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, tokenValue string) (*models.AdmissionToken, error) {
	const query = `SELECT token, request_id FROM admission_tokens WHERE token = $1`

	var (
		t         models.AdmissionToken
		requestID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, tokenValue).Scan(&t.Token, &requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("admission token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find admission token: %w", err)
	}
	t.RequestID = id.RequestID(requestID)
	return &t, nil
}

func (s *PostgresStore) FindByRequest(ctx context.Context, requestID id.RequestID) (*models.AdmissionToken, error) {
	const query = `SELECT token, request_id FROM admission_tokens WHERE request_id = $1`

	var (
		t     models.AdmissionToken
		reqID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(requestID)).Scan(&t.Token, &reqID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find token by request: %w", err)
	}
	t.RequestID = id.RequestID(reqID)
	return &t, nil
}
