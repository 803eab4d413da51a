// Package scheduler runs the recurring background work: a nightly full
// mirror resync and an interval dashboard refresh that keeps cached stats
// warm between client polls.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"restodash/backend/internal/domain"
	"restodash/backend/internal/service"
)

type Scheduler struct {
	cron    *cron.Cron
	svc     *service.Service
	refresh time.Duration
	logger  *zap.Logger
	stop    chan struct{}
}

func New(svc *service.Service, refresh time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		svc:     svc,
		refresh: refresh,
		logger:  logger.Named("scheduler"),
		stop:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Duration("refresh_interval", s.refresh))

	// Nightly at 02:00: heal any mirror syncs missed by the write-behind path.
	if _, err := s.cron.AddFunc("0 2 * * *", s.resyncMirror); err != nil {
		s.logger.Error("failed to schedule mirror resync", zap.Error(err))
	}
	s.cron.Start()

	if s.refresh > 0 {
		go s.refreshLoop()
	}
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	close(s.stop)
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) resyncMirror() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.svc.ResyncMirror(ctx); err != nil {
		s.logger.Error("mirror resync failed", zap.Error(err))
		return
	}
	s.logger.Info("mirror resync complete")
}

// refreshLoop recomputes the dashboard snapshots on a fixed interval, the
// same cadence the dashboard polls at, so poll hits land on warm entries.
func (s *Scheduler) refreshLoop() {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			for _, filter := range []string{domain.FilterToday, domain.FilterThisWeek, domain.FilterThisMonth} {
				if _, err := s.svc.Dashboard(ctx, filter); err != nil {
					s.logger.Warn("dashboard refresh failed",
						zap.String("filter", filter),
						zap.Error(err))
				}
			}
			cancel()
		}
	}
}
