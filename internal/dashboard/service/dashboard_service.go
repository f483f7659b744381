package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/cache"
)

// CachePrefix namespaces every dashboard key so one DeletePrefix clears them.
const CachePrefix = "dashboard:"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Repository interface {
	Stats(ctx context.Context, threshold int) (*domain.DashboardStats, error)
	RecentMovements(ctx context.Context, limit int) ([]domain.MovementView, error)
	TopSelling(ctx context.Context, limit int) ([]domain.TopSeller, error)
	MonthlyTotals(ctx context.Context) ([]domain.MonthTotal, error)
}

type DashboardService struct {
	repo      Repository
	cache     cache.Cache
	ttl       time.Duration
	threshold int
	logger    *zap.Logger
}

func NewDashboardService(repo Repository, c cache.Cache, ttl time.Duration, threshold int, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		repo:      repo,
		cache:     c,
		ttl:       ttl,
		threshold: threshold,
		logger:    logger,
	}
}

func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	return remember(ctx, s, fmt.Sprintf("%sstats:%d", CachePrefix, s.threshold), func() (*domain.DashboardStats, error) {
		return s.repo.Stats(ctx, s.threshold)
	})
}

func (s *DashboardService) RecentMovements(ctx context.Context, limit int) ([]domain.MovementView, error) {
	limit = clampLimit(limit)
	return remember(ctx, s, fmt.Sprintf("%srecent:%d", CachePrefix, limit), func() ([]domain.MovementView, error) {
		return s.repo.RecentMovements(ctx, limit)
	})
}

func (s *DashboardService) TopSelling(ctx context.Context, limit int) ([]domain.TopSeller, error) {
	limit = clampLimit(limit)
	return remember(ctx, s, fmt.Sprintf("%stop-selling:%d", CachePrefix, limit), func() ([]domain.TopSeller, error) {
		return s.repo.TopSelling(ctx, limit)
	})
}

func (s *DashboardService) MonthlyMovements(ctx context.Context) (domain.MonthlySeries, error) {
	return remember(ctx, s, CachePrefix+"monthly", func() (domain.MonthlySeries, error) {
		totals, err := s.repo.MonthlyTotals(ctx)
		if err != nil {
			return domain.MonthlySeries{}, err
		}
		return domain.NewMonthlySeries(totals), nil
	})
}

// remember serves key from the cache or loads and stores it. A failed cache
// write is logged and the loaded value is still returned.
func remember[T any](ctx context.Context, s *DashboardService, key string, load func() (T, error)) (T, error) {
	var cached T
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
