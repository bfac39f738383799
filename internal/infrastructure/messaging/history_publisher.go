package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// HistoryPublisher announces applied refreshes on {prefix}.history.updated
type HistoryPublisher struct {
	conn   *NATSConnection
	logger *logger.Logger
}

// NewHistoryPublisher creates a new history publisher
func NewHistoryPublisher(conn *NATSConnection, logger *logger.Logger) *HistoryPublisher {
	return &HistoryPublisher{
		conn:   conn,
		logger: logger.WithComponent("history-publisher"),
	}
}

// PublishHistoryUpdated publishes summary; without a connection it does nothing
func (p *HistoryPublisher) PublishHistoryUpdated(ctx context.Context, summary *entity.HistorySummary) error {
	nc := p.conn.Conn()
	if nc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal history summary: %w", err)
	}

	subject := p.conn.Subject("history.updated")
	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("Published history update",
		zap.String("subject", subject),
		zap.String("account", summary.Account),
		zap.Int("events", summary.Events))
	return nil
}
