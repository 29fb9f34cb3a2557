package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
	"github.com/youssefloay/comebac-sub002/pkg/identity"
	"github.com/youssefloay/comebac-sub002/pkg/platform/sentinel"
)

// PostgresStore persists attendance requests. The capacity-bounded insert and
// the guarded check-in are single conditional statements so concurrent callers
// can never both take the last slot or both redeem the same request.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `
	id, match_id, match_kind, first_name, last_name, email, phone, photo_ref,
	team_id, team_name, status, checked_in, checked_in_at, submitted_at`

// CreateWithinLimit inserts only while the match's pending+approved count is
// below limit. A transaction-scoped advisory lock on the match serializes
// racing submissions; a plain count-then-insert under read committed lets two
// callers both observe the last free slot.
func (s *PostgresStore) CreateWithinLimit(ctx context.Context, req *models.AttendanceRequest, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin capacity transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`
	if _, err := tx.ExecContext(ctx, lockQuery, uuid.UUID(req.Match.ID).String(), req.Match.Kind.String()); err != nil {
		return fmt.Errorf("acquire match lock: %w", err)
	}

	const insertQuery = `
		INSERT INTO attendance_requests (` + requestColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		WHERE (
			SELECT count(*) FROM attendance_requests
			WHERE match_id = $2 AND match_kind = $3 AND status IN ('pending', 'approved')
		) < $15`

	result, err := tx.ExecContext(ctx, insertQuery,
		uuid.UUID(req.ID), uuid.UUID(req.Match.ID), req.Match.Kind.String(),
		req.FirstName, req.LastName, req.Email, req.Phone, req.PhotoRef,
		uuid.UUID(req.TeamID), req.TeamName,
		string(req.Status), req.CheckedIn, nullTime(req.CheckedInAt), req.SubmittedAt,
		limit,
	)
	if err != nil {
		return fmt.Errorf("insert attendance request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert attendance request: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("match %s is at capacity: %w", req.Match.ID, sentinel.ErrConflict)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.AttendanceRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM attendance_requests WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, uuid.UUID(requestID))
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attendance request not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, match id.MatchRef, ident identity.Identity) ([]*models.AttendanceRequest, error) {
	column := "email"
	if ident.Kind == identity.KindPhone {
		column = "phone"
	}
	query := `SELECT ` + requestColumns + ` FROM attendance_requests
		WHERE match_id = $1 AND match_kind = $2 AND ` + column + ` = $3
		ORDER BY submitted_at, id`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(match.ID), match.Kind.String(), ident.Key)
	if err != nil {
		return nil, fmt.Errorf("find requests by identity: %w", err)
	}
	defer rows.Close()

	var out []*models.AttendanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find requests by identity: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountActive(ctx context.Context, match id.MatchRef) (int, error) {
	const query = `
		SELECT count(*) FROM attendance_requests
		WHERE match_id = $1 AND match_kind = $2 AND status IN ('pending', 'approved')`

	var count int
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(match.ID), match.Kind.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active requests: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, requestID id.RequestID, status models.RequestStatus) error {
	const query = `
		UPDATE attendance_requests SET status = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := s.db.ExecContext(ctx, query, uuid.UUID(requestID), string(status))
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// Distinguish missing from already-terminal for the caller.
	if _, err := s.FindByID(ctx, requestID); err != nil {
		return err
	}
	return fmt.Errorf("request is no longer pending: %w", sentinel.ErrInvalidState)
}

// MarkCheckedIn is the redeem-if-still-unredeemed write. A no-op (applied
// false) means the record was missing, not approved, already checked in, or
// blocked because another checked-in request on the match shares a contact
// identity; callers re-read to tell the cases apart.
//
// The identity exclusion is evaluated inside the same advisory-locked
// transaction that does the write. Two kiosks confirming two requests under
// one shared email would otherwise each read a clean state and both admit.
func (s *PostgresStore) MarkCheckedIn(ctx context.Context, requestID id.RequestID, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin check-in transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const matchQuery = `SELECT match_id, match_kind FROM attendance_requests WHERE id = $1`
	var matchID uuid.UUID
	var matchKind string
	if err := tx.QueryRowContext(ctx, matchQuery, uuid.UUID(requestID)).Scan(&matchID, &matchKind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("attendance request not found: %w", sentinel.ErrNotFound)
		}
		return false, fmt.Errorf("mark checked in: %w", err)
	}

	// Same per-match lock the capacity insert takes; the second confirm
	// waits until the first commit so its NOT EXISTS sees the admitted row.
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`
	if _, err := tx.ExecContext(ctx, lockQuery, matchID.String(), matchKind); err != nil {
		return false, fmt.Errorf("acquire match lock: %w", err)
	}

	const query = `
		UPDATE attendance_requests r SET checked_in = TRUE, checked_in_at = $2
		WHERE r.id = $1 AND r.status = 'approved' AND r.checked_in = FALSE
		AND NOT EXISTS (
			SELECT 1 FROM attendance_requests o
			WHERE o.match_id = r.match_id AND o.match_kind = r.match_kind
			AND o.id <> r.id AND o.checked_in = TRUE
			AND (o.email = r.email OR (r.phone <> '' AND o.phone = r.phone))
		)`

	result, err := tx.ExecContext(ctx, query, uuid.UUID(requestID), at)
	if err != nil {
		return false, fmt.Errorf("mark checked in: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark checked in: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit check-in: %w", err)
	}
	return rows == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.AttendanceRequest, error) {
	var (
		req         models.AttendanceRequest
		requestID   uuid.UUID
		matchID     uuid.UUID
		matchKind   string
		teamID      uuid.UUID
		status      string
		checkedInAt sql.NullTime
	)
	err := row.Scan(
		&requestID, &matchID, &matchKind,
		&req.FirstName, &req.LastName, &req.Email, &req.Phone, &req.PhotoRef,
		&teamID, &req.TeamName,
		&status, &req.CheckedIn, &checkedInAt, &req.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	req.ID = id.RequestID(requestID)
	req.Match = id.MatchRef{ID: id.MatchID(matchID), Kind: id.MatchKind(matchKind)}
	req.TeamID = id.TeamID(teamID)
	req.Status = models.RequestStatus(status)
	if checkedInAt.Valid {
		at := checkedInAt.Time
		req.CheckedInAt = &at
	}
	return &req, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
