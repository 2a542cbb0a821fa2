package jobs

import (
	"context"
	"log"
	"log/slog"
	"time"
)

// StatsStore recomputes per-profile activity counters.
type StatsStore interface {
	RefreshUserStats(ctx context.Context) (int64, error)
}

// StatsRefresher periodically recomputes user_stats.
type StatsRefresher struct {
	db       StatsStore
	interval time.Duration
}

// NewStatsRefresher creates a new stats refresher.
func NewStatsRefresher(db StatsStore, interval time.Duration) *StatsRefresher {
	return &StatsRefresher{db: db, interval: interval}
}

// Start runs the refresh loop until ctx is cancelled.
func (r *StatsRefresher) Start(ctx context.Context) {
	log.Printf("Stats refresher started (interval: %v)", r.interval)

	// Run immediately on start
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stats refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *StatsRefresher) refresh(ctx context.Context) {
	start := time.Now()
	n, err := r.db.RefreshUserStats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("stats refresh failed", "error", err)
		}
		return
	}
	slog.Debug("user stats refreshed", "profiles", n, "duration", time.Since(start))
}
