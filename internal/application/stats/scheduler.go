package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/regportal-api/internal/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const refreshTimeout = 5 * time.Minute

// Scheduler runs Refresh on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	svc  Service
}

// NewScheduler registers the refresh job under spec, a standard 5-field
// cron expression evaluated in UTC.
func NewScheduler(svc Service, spec string) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	s := &Scheduler{cron: c, svc: svc}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule stats refresh %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// RunNow refreshes once in the background.
func (s *Scheduler) RunNow() {
	go s.run()
}

// Stop halts scheduling; the returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	ls, err := s.svc.Refresh(ctx)
	if err != nil {
		logger.Warn(ctx, "stats refresh failed", zap.Error(err))
		return
	}
	logger.Info(ctx, "stats refreshed", zap.Int("total", ls.Total), zap.Int("states", len(ls.StateCounts)))
}
