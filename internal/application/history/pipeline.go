package history

import (
	"time"

	"wallet-history-indexer/internal/domain/entity"
)

// Result is the output of one pipeline run
type Result struct {
	Events  []entity.ProcessedEvent
	Buckets []entity.GroupedBucket
	Tokens  []entity.TokenInfo
}

// Pipeline composes normalize, classify, dedupe/sort and group
type Pipeline struct {
	normalizer *Normalizer
	grouper    *Grouper
	now        func() time.Time
}

// NewPipeline creates a pipeline; now is used for timestamp fallback and date labels
func NewPipeline(loc *time.Location, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		normalizer: NewNormalizer(now),
		grouper:    NewGrouper(loc),
		now:        now,
	}
}

// Run processes the raw records of one fetch for account
func (p *Pipeline) Run(records []*entity.RawLedgerRecord, account string) (*Result, error) {
	classified, err := Classify(p.normalizer.NormalizeAll(records), account)
	if err != nil {
		return nil, err
	}

	events := DedupeAndSort(classified)

	return &Result{
		Events:  events,
		Buckets: p.grouper.Group(events, p.now()),
		Tokens:  DetectTokens(records),
	}, nil
}
