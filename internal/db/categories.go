package db

import (
	"context"

	"pecommunity/internal/models"
)

// ListCategories returns categories, optionally scoped to a stage, ordered by name.
func (d *DB) ListCategories(ctx context.Context, stageID string) ([]models.Category, error) {
	query := `
		SELECT id, stage_id, name, description, created_at
		FROM categories
		WHERE ($1 = '' OR stage_id = $1)
		ORDER BY stage_id, name
	`
	rows, err := d.Pool.Query(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.StageID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
