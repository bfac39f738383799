package database

import (
	"strings"
	"testing"

	"wallet-history-indexer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityParams(t *testing.T) {
	events := []entity.ProcessedEvent{
		{
			ID:                  "0xabc-1",
			Category:            entity.CategoryIncoming,
			TokenSymbol:         "DAI",
			Amount:              "1.5",
			CounterpartyAddress: "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa",
			TransactionHash:     "0xabc",
			TimestampMillis:     1700000000000,
		},
		{
			ID:                  "0xdef",
			Category:            entity.CategoryOutgoing,
			CounterpartyAddress: "Unknown",
		},
	}

	params := activityParams("0x1111111111111111111111111111111111111111", events)

	assert.Equal(t, "0x1111111111111111111111111111111111111111", params["account"])
	rows := params["events"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", row["counterparty"])
	assert.Equal(t, "incoming", row["category"])
	assert.Equal(t, int64(1700000000000), row["timestamp"])
}

func TestActivityParams_IDsScopedToAccount(t *testing.T) {
	sender := "0x1111111111111111111111111111111111111111"
	recipient := "0x2222222222222222222222222222222222222222"
	sent := entity.ProcessedEvent{ID: "0xhash", Category: entity.CategoryOutgoing, CounterpartyAddress: recipient}
	received := entity.ProcessedEvent{ID: "0xhash", Category: entity.CategoryIncoming, CounterpartyAddress: sender}

	fromSender := activityParams(sender, []entity.ProcessedEvent{sent})["events"].([]any)[0].(map[string]any)
	fromRecipient := activityParams("0x"+strings.ToUpper(recipient[2:]), []entity.ProcessedEvent{received})["events"].([]any)[0].(map[string]any)

	assert.Equal(t, sender+":0xhash", fromSender["id"])
	assert.NotEqual(t, fromSender["id"], fromRecipient["id"])
	assert.Equal(t, "0xhash", fromSender["event_id"])
	assert.Equal(t, fromSender["event_id"], fromRecipient["event_id"])
}
