package stats

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/regportal-api/internal/domain"
	"github.com/regportal-api/internal/metrics"
)

// Service maintains the cached per-state registration counts.
type Service interface {
	Refresh(ctx context.Context) (*domain.LiveStats, error)
	Current(ctx context.Context) (*domain.LiveStats, error)
}

type stateSource interface {
	ScanStates(ctx context.Context) ([]string, error)
}

type statsStore interface {
	Put(ctx context.Context, s *domain.LiveStats) error
	Get(ctx context.Context, statID string) (*domain.LiveStats, error)
}

type ServiceDeps struct {
	Registrations stateSource
	Stats         statsStore
	Now           func() time.Time
}

type service struct {
	registrations stateSource
	stats         statsStore
	now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{registrations: deps.Registrations, stats: deps.Stats, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Refresh(ctx context.Context) (*domain.LiveStats, error) {
	states, err := s.registrations.ScanStates(ctx)
	if err != nil {
		metrics.StatsRefreshTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	counts := CountByState(states)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	ls := &domain.LiveStats{
		StatID:      domain.RegistrationCountsID,
		Total:       total,
		StateCounts: counts,
		LastUpdated: s.now().UTC(),
	}
	if err := s.stats.Put(ctx, ls); err != nil {
		metrics.StatsRefreshTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.StatsRefreshTotal.WithLabelValues("success").Inc()
	metrics.RegistrationsTotal.Set(float64(ls.Total))
	return ls, nil
}

func (s *service) Current(ctx context.Context) (*domain.LiveStats, error) {
	return s.stats.Get(ctx, domain.RegistrationCountsID)
}

// CountByState groups states and orders them by count descending, then by
// name. Blank states are skipped.
func CountByState(states []string) []domain.StateCount {
	counts := make(map[string]int)
	for _, st := range states {
		st = strings.TrimSpace(st)
		if st == "" {
			continue
		}
		counts[st]++
	}
	out := make([]domain.StateCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, domain.StateCount{State: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].State < out[j].State
	})
	return out
}
