package history

import (
	"strings"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
)

const unknownCounterparty = "Unknown"

// Classify assigns a category and counterparty to every event relative to
// account. Rules in priority order:
//  1. approval records are approvals, counterparty is the spender
//  2. to == account and from != account is incoming, counterparty is the sender
//  3. everything else is outgoing, counterparty is the recipient
//
// A self transfer (from == to == account) therefore classifies as outgoing.
// The input is not modified.
func Classify(events []entity.ProcessedEvent, account string) ([]entity.ProcessedEvent, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, service.ErrNoActiveAccount
	}

	out := make([]entity.ProcessedEvent, len(events))
	for i, ev := range events {
		out[i] = classifyOne(ev, account)
	}
	return out, nil
}

func classifyOne(ev entity.ProcessedEvent, account string) entity.ProcessedEvent {
	isIncoming := strings.EqualFold(ev.To, account)
	isOutgoing := strings.EqualFold(ev.From, account)

	switch {
	case ev.IsApproval:
		ev.Category = entity.CategoryApproval
		ev.CounterpartyAddress = orDefault(ev.To, unknownCounterparty)
	case isIncoming && !isOutgoing:
		ev.Category = entity.CategoryIncoming
		ev.CounterpartyAddress = orDefault(ev.From, unknownCounterparty)
	default:
		ev.Category = entity.CategoryOutgoing
		ev.CounterpartyAddress = orDefault(ev.To, unknownCounterparty)
	}
	return ev
}
