// Package sweeper removes stories that have outlived their TTL.
//
// Each pass lists every story, computes its age against the clock and deletes
// the ones strictly older than the TTL. Nothing is remembered between passes,
// so a restart or a failed pass simply means the next pass catches up.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/metrics"
)

const defaultBatchSize = 100

// ErrAlreadyRunning is returned by Sweep when another pass is in progress.
var ErrAlreadyRunning = errors.New("sweep already running")

// StoryStore is the subset of the story repository the sweeper needs.
type StoryStore interface {
	ListAll(ctx context.Context) ([]*domain.Story, error)
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
}

// Publisher receives an expiry event per story the sweeper removed.
type Publisher interface {
	Publish(event domain.StoryEvent)
}

type Config struct {
	TTL       time.Duration
	Interval  time.Duration
	BatchSize int
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(s *Sweeper) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// Result summarizes one pass.
type Result struct {
	Scanned int
	Expired int
	Deleted int64
	Failed  int
}

type Sweeper struct {
	store     StoryStore
	cfg       Config
	now       func() time.Time
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store StoryStore, cfg Config, opts ...Option) *Sweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	s := &Sweeper{
		store:  store,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sweeper")
	return s
}

// Start runs a pass immediately and then once per interval until ctx is
// cancelled or Stop is called. Passes run on a single goroutine, so a slow
// pass delays the next tick instead of overlapping it.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.tick(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	s.logger.Info("sweeper started", "ttl", s.cfg.TTL, "interval", s.cfg.Interval)
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panicked", "panic", r)
		}
	}()

	if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		s.logger.Warn("sweep failed, retrying next interval", "error", err)
	}
}

// Sweep runs a single pass. It refuses to run concurrently with itself and
// returns ErrAlreadyRunning instead.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.Sweep(metrics.ResultSkipped, 0, 0)
		return Result{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	start := time.Now()
	res, err := s.sweep(ctx)
	took := time.Since(start)

	switch {
	case err != nil:
		s.metrics.Sweep(metrics.ResultError, 0, took)
		return res, err
	case res.Failed > 0:
		s.metrics.Sweep(metrics.ResultError, res.Deleted, took)
	default:
		s.metrics.Sweep(metrics.ResultSuccess, res.Deleted, took)
	}

	if res.Expired > 0 {
		s.logger.Info("sweep finished",
			"scanned", res.Scanned,
			"expired", res.Expired,
			"deleted", res.Deleted,
			"failed", res.Failed,
			"took", took,
		)
	}
	return res, nil
}

func (s *Sweeper) sweep(ctx context.Context) (Result, error) {
	stories, err := s.store.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	res := Result{Scanned: len(stories)}

	var expired []string
	for _, story := range stories {
		if story.Expired(now, s.cfg.TTL) {
			expired = append(expired, story.ID)
		}
	}
	res.Expired = len(expired)

	for start := 0; start < len(expired); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(expired))
		batch := expired[start:end]

		removed, err := s.store.DeleteMany(ctx, batch)
		if err != nil {
			// Left for the next pass.
			res.Failed += len(batch)
			s.logger.Warn("failed to delete expired batch", "count", len(batch), "error", err)
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			continue
		}
		res.Deleted += int64(len(removed))

		// Stories the owner deleted in the meantime already had their event.
		if s.publisher != nil {
			for _, id := range removed {
				s.publisher.Publish(domain.StoryEvent{Type: domain.StoryEventExpired, StoryID: id})
			}
		}
	}

	return res, nil
}
