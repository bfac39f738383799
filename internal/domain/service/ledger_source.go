package service

import (
	"context"

	"wallet-history-indexer/internal/domain/entity"
)

// FetchResult holds the raw records of every record kind that succeeded and the
// failure of every kind that did not
type FetchResult struct {
	Records  []*entity.RawLedgerRecord
	Failures map[entity.RecordKind]error
}

// Partial reports whether at least one record kind failed
func (r *FetchResult) Partial() bool {
	return len(r.Failures) > 0
}

// LedgerSource defines the interface for retrieving raw history for an account
type LedgerSource interface {
	// Fetch retrieves the most recent raw records for account, newest first.
	// An empty account yields an empty result without any remote call.
	Fetch(ctx context.Context, account string) (*FetchResult, error)

	// Name identifies the source in logs
	Name() string

	// Kinds lists the record kinds the source produces
	Kinds() []entity.RecordKind
}
