package spacedata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lbrode/clientspace/internal/cache"
	"github.com/lbrode/clientspace/internal/domain"
	"github.com/lbrode/clientspace/internal/sched"
)

// recordStore defines the record-backend operations the service needs.
// Satisfied by gateway.Client.
type recordStore interface {
	ListTasks(ctx context.Context, spaceID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, payload domain.Record) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListMilestones(ctx context.Context, spaceID string) ([]domain.Milestone, error)
	ListInvoices(ctx context.Context, spaceID string) ([]domain.Invoice, error)
	CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, id string, payload domain.Record) (*domain.Invoice, error)
	ListProspects(ctx context.Context) ([]domain.Prospect, error)
	CreateProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error)
	UpdateProspectStage(ctx context.Context, id string, stage domain.ProspectStage) (*domain.Prospect, error)
}

// Notifier receives user-facing notices: a mutation was rolled back, a
// rate-limited fetch will be retried. The default implementation logs.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Notify(ctx context.Context, message string) {
	n.log.InfoContext(ctx, "user notice", slog.String("message", message))
}

// Config tunes cache lifetimes and the rate-limit retry.
type Config struct {
	// RecordTTL bounds cached task/milestone/invoice/prospect lists.
	RecordTTL time.Duration
	// StatsTTL bounds cached aggregate figures. Longer than RecordTTL
	// because stats tolerate staleness better than record lists.
	StatsTTL time.Duration
	// RetryDelay is the single fixed delay applied when the record store
	// answers with a rate limit. There is exactly one scheduled retry per
	// key; further rate limits while one is pending are dropped.
	RetryDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.RecordTTL <= 0 {
		c.RecordTTL = 30 * time.Second
	}
	if c.StatsTTL <= 0 {
		c.StatsTTL = 5 * time.Minute
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
}

// Service serves space records through a read-through cache with
// de-duplicated fetches and optimistic mutations.
type Service struct {
	log      *slog.Logger
	store    recordStore
	cache    *cache.Store
	loader   *cache.Loader
	mutator  *cache.Mutator
	sched    *sched.Scheduler
	notifier Notifier
	cfg      Config

	mu      sync.Mutex
	retries map[string]sched.Handle
}

// NewService creates a space-data service. notifier may be nil, in which
// case notices go to the logger.
func NewService(logger *slog.Logger, store recordStore, cacheStore *cache.Store, scheduler *sched.Scheduler, notifier Notifier, cfg Config) *Service {
	cfg.applyDefaults()
	log := logger.With("service", "spacedata")
	if notifier == nil {
		notifier = logNotifier{log: log}
	}
	return &Service{
		log:      log,
		store:    store,
		cache:    cacheStore,
		loader:   cache.NewLoader(cacheStore),
		mutator:  cache.NewMutator(cacheStore),
		sched:    scheduler,
		notifier: notifier,
		cfg:      cfg,
		retries:  make(map[string]sched.Handle),
	}
}

// load is the shared read path: cache hit within TTL, otherwise one
// de-duplicated fetch. A rate-limited fetch schedules a single delayed
// refresh for the key and still returns the error to the caller.
func (s *Service) load(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	v, err := s.loader.Load(ctx, key, ttl, fetch)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			s.scheduleRetry(key, ttl, fetch)
		}
		return nil, err
	}
	return v, nil
}

// scheduleRetry arms at most one delayed refetch per key. The retry runs
// with a background context since the triggering request is long gone.
func (s *Service) scheduleRetry(key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) {
	s.mu.Lock()
	if _, pending := s.retries[key]; pending {
		s.mu.Unlock()
		return
	}
	handle := s.sched.Schedule(s.cfg.RetryDelay, func() {
		s.mu.Lock()
		delete(s.retries, key)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.loader.Load(ctx, key, ttl, fetch); err != nil {
			s.log.WarnContext(ctx, "scheduled refresh failed", slog.String("key", key), slog.Any("error", err))
		}
	})
	s.retries[key] = handle
	s.mu.Unlock()

	s.notifier.Notify(context.Background(), "the data service is busy, refresh scheduled")
	s.log.Info("rate limited, retry scheduled",
		slog.String("key", key),
		slog.Duration("delay", s.cfg.RetryDelay),
	)
}

// Tasks returns the task list of a space for the given viewer scope.
func (s *Service) Tasks(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Task, error) {
	v, err := s.load(ctx, cache.TasksKey(spaceID, viewer), s.cfg.RecordTTL, func(ctx context.Context) (any, error) {
		return s.store.ListTasks(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("spacedata.Tasks: %w", err)
	}
	return v.([]domain.Task), nil
}

// Milestones returns the milestone list of a space.
func (s *Service) Milestones(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Milestone, error) {
	v, err := s.load(ctx, cache.MilestonesKey(spaceID, viewer), s.cfg.RecordTTL, func(ctx context.Context) (any, error) {
		return s.store.ListMilestones(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("spacedata.Milestones: %w", err)
	}
	return v.([]domain.Milestone), nil
}

// Invoices returns the invoice list of a space.
func (s *Service) Invoices(ctx context.Context, spaceID string, viewer domain.Viewer) ([]domain.Invoice, error) {
	v, err := s.load(ctx, cache.InvoicesKey(spaceID, viewer), s.cfg.RecordTTL, func(ctx context.Context) (any, error) {
		return s.store.ListInvoices(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("spacedata.Invoices: %w", err)
	}
	return v.([]domain.Invoice), nil
}

// Prospects returns the owner-wide prospect pipeline.
func (s *Service) Prospects(ctx context.Context) ([]domain.Prospect, error) {
	v, err := s.load(ctx, cache.ProspectsKey(), s.cfg.RecordTTL, func(ctx context.Context) (any, error) {
		return s.store.ListProspects(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("spacedata.Prospects: %w", err)
	}
	return v.([]domain.Prospect), nil
}

// Stats aggregates margin and investment figures for a space. Revenue
// sums paid invoices, Outstanding sums sent ones, Investment sums task
// costs. Cached with its own, longer TTL.
func (s *Service) Stats(ctx context.Context, spaceID string) (*domain.SpaceStats, error) {
	v, err := s.load(ctx, cache.StatsKey(spaceID), s.cfg.StatsTTL, func(ctx context.Context) (any, error) {
		return s.computeStats(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("spacedata.Stats: %w", err)
	}
	return v.(*domain.SpaceStats), nil
}

func (s *Service) computeStats(ctx context.Context, spaceID string) (*domain.SpaceStats, error) {
	invoices, err := s.store.ListInvoices(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	stats := &domain.SpaceStats{SpaceID: spaceID}
	for _, inv := range invoices {
		switch inv.Status {
		case domain.InvoicePaid:
			stats.Revenue += inv.Amount
		case domain.InvoiceSent:
			stats.Outstanding += inv.Amount
		}
	}
	for _, t := range tasks {
		stats.Investment += t.Cost
		stats.TasksTotal++
		if t.Status == domain.TaskDone {
			stats.TasksDone++
		}
	}
	stats.Compute()
	return stats, nil
}

// Logout clears all cached data and cancels outstanding retries. Cached
// values never survive the session that loaded them.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	for key, handle := range s.retries {
		s.sched.Cancel(handle)
		delete(s.retries, key)
	}
	s.mu.Unlock()

	s.cache.Clear()
	s.log.InfoContext(ctx, "session cache cleared")
}
