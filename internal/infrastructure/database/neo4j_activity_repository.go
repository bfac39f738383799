package database

import (
	"context"
	"fmt"
	"strings"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/repository"
	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const saveActivityQuery = `
	MERGE (a:Wallet {address: $account})
	SET a.last_synced = datetime()
	WITH a
	UNWIND $events AS ev
	MERGE (c:Wallet {address: ev.counterparty})
	MERGE (a)-[r:ACTIVITY {id: ev.id}]->(c)
	SET
		r.event_id = ev.event_id,
		r.category = ev.category,
		r.token = ev.token,
		r.amount = ev.amount,
		r.tx_hash = ev.tx_hash,
		r.timestamp = datetime({epochMillis: ev.timestamp})
`

const counterpartiesQuery = `
	MATCH (a:Wallet {address: $account})-[r:ACTIVITY]->(c:Wallet)
	RETURN c.address AS address, count(r) AS interactions
	ORDER BY interactions DESC, address
	LIMIT $limit
`

// Neo4JActivityRepository implements ActivityRepository interface
type Neo4JActivityRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JActivityRepository creates a new Neo4J activity repository
func NewNeo4JActivityRepository(client *Neo4JClient, logger *logger.Logger) repository.ActivityRepository {
	return &Neo4JActivityRepository{
		client: client,
		logger: logger.WithComponent("neo4j-activity-repo"),
	}
}

// SaveActivity upserts one ACTIVITY relationship per event, keyed by event id
func (r *Neo4JActivityRepository) SaveActivity(ctx context.Context, account string, events []entity.ProcessedEvent) error {
	params := activityParams(account, events)
	rows := params["events"].([]any)
	if len(rows) == 0 {
		return nil
	}

	session := r.client.NewSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, saveActivityQuery, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	r.logger.Debug("Exported activity",
		zap.String("account", account),
		zap.Int("relationships", len(rows)))
	return nil
}

// GetCounterparties returns the counterparties of account, most frequent first
func (r *Neo4JActivityRepository) GetCounterparties(ctx context.Context, account string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	session := r.client.NewSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, counterpartiesQuery, map[string]any{
			"account": strings.ToLower(account),
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}

		var addresses []string
		for records.Next(ctx) {
			if addr, ok := records.Record().Get("address"); ok {
				if s, ok := addr.(string); ok {
					addresses = append(addresses, s)
				}
			}
		}
		return addresses, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get counterparties: %w", err)
	}

	addresses, _ := result.([]string)
	return addresses, nil
}

// activityParams builds the query parameters; addresses are lowercased and
// events without a known counterparty are skipped. Relationship ids are scoped
// to the exporting account since both sides of a transfer share the event id.
func activityParams(account string, events []entity.ProcessedEvent) map[string]any {
	account = strings.ToLower(account)
	rows := make([]any, 0, len(events))
	for _, ev := range events {
		counterparty := strings.ToLower(ev.CounterpartyAddress)
		if counterparty == "" || !strings.HasPrefix(counterparty, "0x") {
			continue
		}
		rows = append(rows, map[string]any{
			"id":           activityID(account, ev.ID),
			"event_id":     ev.ID,
			"counterparty": counterparty,
			"category":     string(ev.Category),
			"token":        ev.TokenSymbol,
			"amount":       ev.Amount,
			"tx_hash":      ev.TransactionHash,
			"timestamp":    ev.TimestampMillis,
		})
	}

	return map[string]any{
		"account": account,
		"events":  rows,
	}
}

func activityID(account, eventID string) string {
	return account + ":" + eventID
}
