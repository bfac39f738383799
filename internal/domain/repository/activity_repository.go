package repository

import (
	"context"

	"wallet-history-indexer/internal/domain/entity"
)

// ActivityRepository defines the interface for exporting processed history
type ActivityRepository interface {
	// SaveActivity upserts the events of account as wallet-to-wallet relationships
	SaveActivity(ctx context.Context, account string, events []entity.ProcessedEvent) error

	// GetCounterparties returns the distinct counterparties recorded for account
	GetCounterparties(ctx context.Context, account string, limit int) ([]string, error)
}
