package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"pecommunity/internal/models"
)

// StatsStore provides the admin dashboard counts.
type StatsStore interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// StatsHandler serves the admin dashboard totals.
type StatsHandler struct {
	db StatsStore
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store StatsStore) *StatsHandler {
	return &StatsHandler{db: store}
}

// Dashboard returns users, content, requests, pending requests and unread messages.
func (h *StatsHandler) Dashboard(c fiber.Ctx) error {
	stats, err := h.db.GetDashboardStats(c.Context())
	if err != nil {
		return handleError(c, err, "failed to fetch stats")
	}
	return jsonSuccess(c, stats)
}
