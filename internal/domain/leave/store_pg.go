package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps leave requests in postgres. The schema carries an exclusion
// constraint on (requester_id, day range) for non-rejected rows, so even a
// write that slips past the engine's lock cannot create an overlap.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

const requestColumns = `
  id, requester_id, requester_role, category_domain, category_code,
  start_date, end_date, reason, COALESCE(document_ref, ''), status,
  total_days, self_request, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.RequesterRole,
		&req.Category.Domain, &req.Category.Code,
		&req.StartDate, &req.EndDate, &req.Reason, &req.DocumentRef,
		&req.Status, &req.TotalDays, &req.SelfRequest,
		&req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

func (s *PGStore) OpenRequests(ctx context.Context, requesterID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE requester_id = $1 AND status <> $2
    ORDER BY start_date
  `, requesterID, StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PGStore) Insert(ctx context.Context, req Request) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_requests (
      id, requester_id, requester_role, category_domain, category_code,
      start_date, end_date, reason, document_ref, status,
      total_days, self_request, created_at, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
  `, req.ID, req.RequesterID, req.RequesterRole,
		req.Category.Domain, req.Category.Code,
		req.StartDate, req.EndDate, req.Reason, nullIfEmpty(req.DocumentRef),
		req.Status, req.TotalDays, req.SelfRequest, req.CreatedAt, req.UpdatedAt)
	if isExclusionViolation(err) {
		return &DateConflictError{With: Request{
			RequesterID: req.RequesterID,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Status:      StatusPending,
		}}
	}
	return err
}

func (s *PGStore) Get(ctx context.Context, id string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

func (s *PGStore) SetStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests SET status = $1, updated_at = $2 WHERE id = $3
  `, status, updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_requests WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM leave_requests
    WHERE 1=1
  `
	args := []any{}
	if len(filter.RequesterIDs) > 0 {
		args = append(args, filter.RequesterIDs)
		query += " AND requester_id = ANY($1)"
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if len(args) == 1 {
			query += " AND status = $1"
		} else {
			query += " AND status = $2"
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
