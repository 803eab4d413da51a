package cache

import (
	"context"
	"time"

	"restodash/backend/internal/domain"
)

// StatsCache memoizes dashboard snapshots per time filter so the polling
// refresh path does not recompute aggregations on every hit.
type StatsCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, key string, value *domain.DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(_ context.Context, _ string) (*domain.DashboardStats, bool, error) {
	return nil, false, nil
}

func (NoopStatsCache) Set(_ context.Context, _ string, _ *domain.DashboardStats, _ time.Duration) error {
	return nil
}

func (NoopStatsCache) Invalidate(_ context.Context) error {
	return nil
}
