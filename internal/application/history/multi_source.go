package history

import (
	"context"
	"errors"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MultiSource merges several ledger sources into one. A source that fails as
// a whole is reported as a failure of each of its record kinds.
type MultiSource struct {
	sources []service.LedgerSource
	logger  *logger.Logger
}

// NewMultiSource creates a merged source
func NewMultiSource(log *logger.Logger, sources ...service.LedgerSource) *MultiSource {
	return &MultiSource{
		sources: sources,
		logger:  log.WithComponent("multi-source"),
	}
}

// Name identifies the source in logs
func (m *MultiSource) Name() string {
	return "multi"
}

// Kinds lists the record kinds of every underlying source
func (m *MultiSource) Kinds() []entity.RecordKind {
	var kinds []entity.RecordKind
	for _, src := range m.sources {
		kinds = append(kinds, src.Kinds()...)
	}
	return kinds
}

// Fetch queries every source concurrently and merges the records newest first
func (m *MultiSource) Fetch(ctx context.Context, account string) (*service.FetchResult, error) {
	results := make([]*service.FetchResult, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, src := range m.sources {
		g.Go(func() error {
			results[i], errs[i] = src.Fetch(ctx, account)
			return nil
		})
	}
	_ = g.Wait()

	merged := &service.FetchResult{Failures: map[entity.RecordKind]error{}}
	var failed []error

	for i, src := range m.sources {
		if err := errs[i]; err != nil {
			if service.IsConfigurationError(err) {
				return nil, err
			}
			m.logger.Warn("Ledger source failed",
				zap.String("source", src.Name()),
				zap.String("account", account),
				zap.Error(err))
			for _, kind := range src.Kinds() {
				merged.Failures[kind] = err
			}
			failed = append(failed, err)
			continue
		}
		merged.Records = append(merged.Records, results[i].Records...)
		for kind, err := range results[i].Failures {
			merged.Failures[kind] = err
		}
	}

	if len(m.sources) > 0 && len(failed) == len(m.sources) {
		return nil, errors.Join(failed...)
	}

	entity.SortNewestFirst(merged.Records)
	return merged, nil
}
