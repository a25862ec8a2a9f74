package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	"github.com/yungbote/project-radar/internal/data/repos"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/observability"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/platform/retry"
)

const (
	DefaultSequenceMaxAttempts = 32
	defaultSequenceBaseDelay   = 2 * time.Millisecond
	defaultSequenceMaxDelay    = 100 * time.Millisecond
)

// SequenceService hands out strictly increasing values per counter name.
type SequenceService interface {
	Next(ctx context.Context, name string) (int64, error)
}

type SequenceOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type sequenceService struct {
	log     *logger.Logger
	repo    repos.SequenceRepo
	metrics *observability.Metrics
	opts    SequenceOptions
}

func NewSequenceService(log *logger.Logger, repo repos.SequenceRepo, metrics *observability.Metrics, opts SequenceOptions) SequenceService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultSequenceMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultSequenceBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultSequenceMaxDelay
	}
	return &sequenceService{
		log:     log.With("service", "SequenceService"),
		repo:    repo,
		metrics: metrics,
		opts:    opts,
	}
}

// Next reads the counter and swaps in value+1. A lost swap means another
// caller took the value; it backs off and tries again.
func (s *sequenceService) Next(ctx context.Context, name string) (int64, error) {
	const op = "Radar.Sequence.Next"
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "missing sequence name", nil)
	}
	dbc := dbctx.Background(ctx)

	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		current, ok, err := s.repo.Get(dbc, name)
		if err != nil {
			return 0, aggregates.MapError(op, err)
		}
		if !ok {
			if err := s.repo.Ensure(dbc, name); err != nil {
				return 0, aggregates.MapError(op, err)
			}
			continue
		}
		won, err := s.repo.CompareAndSwap(dbc, name, current, current+1)
		if err != nil {
			return 0, aggregates.MapError(op, err)
		}
		if won {
			return current + 1, nil
		}
		s.metrics.IncSequenceRetry(name)
		if err := retry.Sleep(ctx, retry.Backoff(attempt, s.opts.BaseDelay, s.opts.MaxDelay)); err != nil {
			return 0, aggregates.MapError(op, err)
		}
	}
	s.log.Warn("sequence retry budget exhausted", "sequence", name, "attempts", s.opts.MaxAttempts)
	return 0, domainagg.NewError(domainagg.CodeSequenceUnavailable, op, fmt.Sprintf("sequence %q contended for %d attempts", name, s.opts.MaxAttempts), nil)
}
