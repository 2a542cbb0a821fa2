package db

import (
	"context"

	"golang.org/x/sync/errgroup"

	"pecommunity/internal/models"
)

// GetDashboardStats counts the admin dashboard totals concurrently.
func (d *DB) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, query string, args ...any) {
		g.Go(func() error {
			return d.Pool.QueryRow(ctx, query, args...).Scan(dst)
		})
	}
	count(&stats.TotalUsers, `SELECT COUNT(*) FROM profiles`)
	count(&stats.TotalContent, `SELECT COUNT(*) FROM content`)
	count(&stats.TotalRequests, `SELECT COUNT(*) FROM content_requests`)
	count(&stats.PendingRequests, `SELECT COUNT(*) FROM content_requests WHERE status = $1`, models.StatusPending)
	count(&stats.UnreadMessages, `SELECT COUNT(*) FROM messages WHERE is_read = FALSE`)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
