package service

import (
	"context"

	"wallet-history-indexer/internal/domain/entity"
)

// HistoryPublisher announces applied history refreshes to other services
type HistoryPublisher interface {
	PublishHistoryUpdated(ctx context.Context, summary *entity.HistorySummary) error
}
