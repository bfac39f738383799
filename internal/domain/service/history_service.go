package service

import (
	"context"

	"wallet-history-indexer/internal/domain/entity"
)

// HistoryService defines the interface consumed by the rendering surface
type HistoryService interface {
	// Refresh runs one full fetch and pipeline cycle for the active account
	Refresh(ctx context.Context) error

	// Snapshot returns a copy of the currently displayed history
	Snapshot() entity.Snapshot

	// SetAccount changes the active account
	SetAccount(account string)
}
