package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/repository"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/logger"
	"wallet-history-indexer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

const defaultRefreshTimeout = 2 * time.Minute

// Service keeps the displayed history in step with the active account
type Service struct {
	source    service.LedgerSource
	pipeline  *Pipeline
	store     *Store
	accounts  *AccountRegistry
	publisher service.HistoryPublisher
	activity  repository.ActivityRepository
	timeout   time.Duration
	logger    *logger.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	stopped     bool
	wg          sync.WaitGroup
}

// Option customises a Service
type Option func(*Service)

// WithPublisher announces every applied refresh
func WithPublisher(p service.HistoryPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithActivityRepository exports every applied refresh
func WithActivityRepository(r repository.ActivityRepository) Option {
	return func(s *Service) { s.activity = r }
}

// WithRefreshTimeout bounds refreshes triggered by account changes
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a new history service
func NewService(
	source service.LedgerSource,
	pipeline *Pipeline,
	accounts *AccountRegistry,
	log *logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		source:   source,
		pipeline: pipeline,
		store:    NewStore(accounts.Current(), nil),
		accounts: accounts,
		timeout:  defaultRefreshTimeout,
		logger:   log.WithComponent("history-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to account changes and loads the history of the current account
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = false
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.unsubscribe = s.accounts.Subscribe(s.onAccountChanged)
	s.mu.Unlock()

	s.store.SetActive(s.accounts.Current())
	if account := s.store.Active(); account != "" {
		s.logger.Info("Loading history for initial account", zap.String("account", account))
		s.refreshAsync()
	}

	s.logger.Info("History service started", zap.String("source", s.source.Name()))
	return nil
}

// Stop unsubscribes and waits for in-flight refreshes
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("History service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetAccount changes the active account
func (s *Service) SetAccount(account string) {
	s.accounts.Set(account)
}

// Snapshot returns a copy of the displayed history
func (s *Service) Snapshot() entity.Snapshot {
	return s.store.Snapshot()
}

// Refresh runs one fetch and pipeline cycle for the active account
func (s *Service) Refresh(ctx context.Context) error {
	account := s.store.Active()
	if account == "" {
		return service.ErrNoActiveAccount
	}

	log := s.logger.WithAccount(account)
	gen := s.store.Begin(account)
	if gen == 0 {
		log.Debug("Account switched before the refresh began, skipping")
		return nil
	}
	start := time.Now()

	fetched, err := s.source.Fetch(ctx, account)
	if err != nil {
		configErr := service.IsConfigurationError(err)
		applied := s.store.Fail(gen, account, err, configErr)
		metrics.RefreshDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error("History refresh failed",
			zap.Error(err),
			zap.Bool("configuration_error", configErr),
			zap.Bool("applied", applied))
		return err
	}

	result, err := s.pipeline.Run(fetched.Records, account)
	if err != nil {
		s.store.Fail(gen, account, err, false)
		metrics.RefreshDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	if !s.store.Commit(gen, account, result, partialWarning(fetched.Failures)) {
		metrics.RefreshDuration.WithLabelValues("stale").Observe(time.Since(start).Seconds())
		log.Debug("Discarded stale history result", zap.Uint64("generation", gen))
		return nil
	}

	outcome := "ok"
	if fetched.Partial() {
		outcome = "partial"
	}
	metrics.RefreshDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	counts := countCategories(result.Events)
	for _, c := range entity.Categories {
		metrics.HistoryEvents.WithLabelValues(string(c)).Set(float64(counts[c]))
	}

	log.Info("History refreshed",
		zap.Int("records", len(fetched.Records)),
		zap.Int("events", len(result.Events)),
		zap.Int("buckets", len(result.Buckets)),
		zap.Int("failed_kinds", len(fetched.Failures)),
		zap.Duration("duration", time.Since(start)))

	s.announce(ctx, account, result, counts, fetched.Partial())
	return nil
}

func (s *Service) onAccountChanged(account string) {
	if !s.store.SetActive(account) {
		return
	}
	if account == "" {
		s.logger.Info("Wallet disconnected, history cleared")
		return
	}
	s.logger.Info("Active account changed", zap.String("account", account))
	s.refreshAsync()
}

func (s *Service) refreshAsync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	base := s.ctx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("Background refresh failed", zap.Error(err))
		}
	}()
}

// announce publishes and exports an applied refresh; failures are only logged
func (s *Service) announce(ctx context.Context, account string, result *Result, counts map[entity.Category]int, partial bool) {
	if s.publisher != nil {
		summary := &entity.HistorySummary{
			Account:   account,
			Events:    len(result.Events),
			Counts:    counts,
			Partial:   partial,
			UpdatedAt: time.Now(),
		}
		if err := s.publisher.PublishHistoryUpdated(ctx, summary); err != nil {
			s.logger.Warn("Failed to publish history update",
				zap.String("account", account),
				zap.Error(err))
		}
	}

	if s.activity != nil && len(result.Events) > 0 {
		if err := s.activity.SaveActivity(ctx, account, result.Events); err != nil {
			s.logger.Warn("Failed to export activity",
				zap.String("account", account),
				zap.Error(err))
		}
	}
}

func countCategories(events []entity.ProcessedEvent) map[entity.Category]int {
	counts := make(map[entity.Category]int, len(entity.Categories))
	for _, ev := range events {
		counts[ev.Category]++
	}
	return counts
}

// partialWarning describes the record kinds that could not be loaded
func partialWarning(failures map[entity.RecordKind]error) string {
	if len(failures) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %v", kind, failures[entity.RecordKind(kind)]))
	}
	return "some history could not be loaded (" + strings.Join(parts, "; ") + ")"
}
