package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pecommunity/internal/models"
)

const contentColumns = `id, title, description, url, type, stage_id, category_id, created_by, request_id, created_at`

func scanContent(row pgx.Row, c *models.Content) error {
	return row.Scan(
		&c.ID, &c.Title, &c.Description, &c.URL, &c.Type, &c.StageID, &c.CategoryID,
		&c.CreatedBy, &c.RequestID, &c.CreatedAt,
	)
}

// CreateContent inserts published content directly, bypassing the request workflow.
func (d *DB) CreateContent(ctx context.Context, c *models.Content) error {
	query := `
		INSERT INTO content (title, description, url, type, stage_id, category_id, created_by, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return d.Pool.QueryRow(ctx, query,
		c.Title,
		c.Description,
		c.URL,
		c.Type,
		c.StageID,
		c.CategoryID,
		c.CreatedBy,
		c.RequestID,
	).Scan(&c.ID, &c.CreatedAt)
}

// GetContentByID retrieves a content row by ID.
func (d *DB) GetContentByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var c models.Content
	err := scanContent(d.Pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM content WHERE id = $1`, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContent returns content matching any combination of filter fields, newest first.
func (d *DB) ListContent(ctx context.Context, filter models.ContentFilter) ([]models.Content, error) {
	var conds []string
	var args []any

	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("stage_id", filter.StageID)
	add("category_id", filter.CategoryID)
	add("type", filter.Type)

	query := `SELECT ` + contentColumns + ` FROM content`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Content{}
	for rows.Next() {
		var c models.Content
		if err := scanContent(rows, &c); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// DeleteContent removes a content row and returns it.
func (d *DB) DeleteContent(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var c models.Content
	err := scanContent(d.Pool.QueryRow(ctx, `DELETE FROM content WHERE id = $1 RETURNING `+contentColumns, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountContentByRequest returns how many content rows were published from a request.
func (d *DB) CountContentByRequest(ctx context.Context, requestID uuid.UUID) (int, error) {
	var n int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM content WHERE request_id = $1`, requestID).Scan(&n)
	return n, err
}
