package history

import (
	"context"
	"sync"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
)

type fakeSource struct {
	name  string
	kinds []entity.RecordKind
	fetch func(ctx context.Context, account string) (*service.FetchResult, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) Name() string               { return f.name }
func (f *fakeSource) Kinds() []entity.RecordKind { return f.kinds }

func (f *fakeSource) Fetch(ctx context.Context, account string) (*service.FetchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, account)
	f.mu.Unlock()
	return f.fetch(ctx, account)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func staticSource(name string, result *service.FetchResult, err error) *fakeSource {
	return &fakeSource{
		name:  name,
		kinds: []entity.RecordKind{entity.RecordKindNative, entity.RecordKindToken},
		fetch: func(context.Context, string) (*service.FetchResult, error) {
			return result, err
		},
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	summaries []*entity.HistorySummary
}

func (p *recordingPublisher) PublishHistoryUpdated(_ context.Context, summary *entity.HistorySummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, summary)
	return nil
}

type recordingActivity struct {
	mu     sync.Mutex
	saved  map[string][]entity.ProcessedEvent
	saveFn func() error
}

func (r *recordingActivity) SaveActivity(_ context.Context, account string, events []entity.ProcessedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		r.saved = map[string][]entity.ProcessedEvent{}
	}
	r.saved[account] = events
	if r.saveFn != nil {
		return r.saveFn()
	}
	return nil
}

func (r *recordingActivity) GetCounterparties(context.Context, string, int) ([]string, error) {
	return nil, nil
}
