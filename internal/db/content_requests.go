package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pecommunity/internal/models"
)

const requestColumns = `r.id, r.title, r.description, r.url, r.type, r.stage_id, r.category_id,
	r.status, r.user_id, r.reviewed_by, r.reviewed_at, r.rejection_reason, r.created_at,
	COALESCE(p.full_name, ''), COALESCE(p.email, '')`

func scanRequest(row pgx.Row, req *models.ContentRequest) error {
	return row.Scan(
		&req.ID, &req.Title, &req.Description, &req.URL, &req.Type, &req.StageID, &req.CategoryID,
		&req.Status, &req.UserID, &req.ReviewedBy, &req.ReviewedAt, &req.RejectionReason, &req.CreatedAt,
		&req.AuthorName, &req.AuthorEmail,
	)
}

// CreateContentRequest inserts a new pending content request.
func (d *DB) CreateContentRequest(ctx context.Context, req *models.ContentRequest) error {
	query := `
		INSERT INTO content_requests (title, description, url, type, stage_id, category_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`
	return d.Pool.QueryRow(ctx, query,
		req.Title,
		req.Description,
		req.URL,
		req.Type,
		req.StageID,
		req.CategoryID,
		req.UserID,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)
}

// GetContentRequestByID retrieves a content request with author info.
func (d *DB) GetContentRequestByID(ctx context.Context, id uuid.UUID) (*models.ContentRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM content_requests r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.id = $1
	`
	var req models.ContentRequest
	err := scanRequest(d.Pool.QueryRow(ctx, query, id), &req)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListContentRequests returns content requests matching the filter, newest first.
func (d *DB) ListContentRequests(ctx context.Context, filter models.RequestFilter) ([]models.ContentRequest, error) {
	var conds []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("r.user_id = $%d", len(args)))
	}

	query := `
		SELECT ` + requestColumns + `
		FROM content_requests r
		LEFT JOIN profiles p ON p.id = r.user_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.ContentRequest{}
	for rows.Next() {
		var req models.ContentRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ApproveContentRequest publishes a pending request as Content and marks it
// approved in a single transaction. The request row is locked for the
// duration, so concurrent approvals of the same request serialize and the
// loser gets ErrRequestNotPending.
func (d *DB) ApproveContentRequest(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID) (*models.ContentRequest, *models.Content, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var req models.ContentRequest
	err = tx.QueryRow(ctx, `
		SELECT id, title, description, url, type, stage_id, category_id, status, user_id, created_at
		FROM content_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&req.ID, &req.Title, &req.Description, &req.URL, &req.Type, &req.StageID, &req.CategoryID,
		&req.Status, &req.UserID, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !req.IsPending() {
		return nil, nil, ErrRequestNotPending
	}

	content := req.ToContent()
	err = tx.QueryRow(ctx, `
		INSERT INTO content (title, description, url, type, stage_id, category_id, created_by, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, content.Title, content.Description, content.URL, content.Type,
		content.StageID, content.CategoryID, content.CreatedBy, content.RequestID,
	).Scan(&content.ID, &content.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, ErrAlreadyPublished
		}
		return nil, nil, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `
		UPDATE content_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4
	`, models.StatusApproved, reviewerID, now, id)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	req.Status = models.StatusApproved
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	return &req, content, nil
}

// RejectContentRequest marks a pending request rejected with an optional reason.
func (d *DB) RejectContentRequest(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID, reason string) (*models.ContentRequest, error) {
	var req models.ContentRequest
	err := d.Pool.QueryRow(ctx, `
		UPDATE content_requests
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), rejection_reason = $3
		WHERE id = $4 AND status = $5
		RETURNING id, title, description, url, type, stage_id, category_id, status, user_id,
			reviewed_by, reviewed_at, rejection_reason, created_at
	`, models.StatusRejected, reviewerID, reason, id, models.StatusPending).Scan(
		&req.ID, &req.Title, &req.Description, &req.URL, &req.Type, &req.StageID, &req.CategoryID,
		&req.Status, &req.UserID, &req.ReviewedBy, &req.ReviewedAt, &req.RejectionReason, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing request from one that was already reviewed.
		if _, getErr := d.GetContentRequestByID(ctx, id); errors.Is(getErr, ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, ErrRequestNotPending
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CountRequestsByStatus returns the number of requests in each status.
func (d *DB) CountRequestsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM content_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
