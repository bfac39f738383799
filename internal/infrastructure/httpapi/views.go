package httpapi

import (
	"time"

	"wallet-history-indexer/internal/application/history"
	"wallet-history-indexer/internal/domain/entity"
)

type eventView struct {
	ID                  string          `json:"id"`
	Category            entity.Category `json:"category"`
	TokenSymbol         string          `json:"token_symbol"`
	Amount              string          `json:"amount"`
	CounterpartyAddress string          `json:"counterparty_address"`
	TransactionHash     string          `json:"transaction_hash"`
	TimestampMillis     int64           `json:"timestamp_millis"`
	ExplorerURL         string          `json:"explorer_url"`
}

type bucketView struct {
	DateLabel string      `json:"date_label"`
	Events    []eventView `json:"events"`
}

type historyView struct {
	Account   string             `json:"account"`
	Loading   bool               `json:"loading"`
	LastError string             `json:"last_error,omitempty"`
	Empty     bool               `json:"empty"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	Tokens    []entity.TokenInfo `json:"tokens"`
	Buckets   []bucketView       `json:"buckets"`
}

func newHistoryView(snap entity.Snapshot, txURLBase string) historyView {
	view := historyView{
		Account:   snap.Account,
		Loading:   snap.Loading,
		LastError: snap.LastError,
		Empty:     snap.IsEmpty(),
		Tokens:    snap.Tokens,
		Buckets:   make([]bucketView, 0, len(snap.Buckets)),
	}
	if view.Tokens == nil {
		view.Tokens = []entity.TokenInfo{}
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt
		view.UpdatedAt = &updated
	}

	for _, b := range snap.Buckets {
		bv := bucketView{DateLabel: b.DateLabel, Events: make([]eventView, 0, len(b.Events))}
		for _, ev := range b.Events {
			bv.Events = append(bv.Events, eventView{
				ID:                  ev.ID,
				Category:            ev.Category,
				TokenSymbol:         ev.TokenSymbol,
				Amount:              ev.Amount,
				CounterpartyAddress: ev.CounterpartyAddress,
				TransactionHash:     ev.TransactionHash,
				TimestampMillis:     ev.TimestampMillis,
				ExplorerURL:         history.ExplorerTxURL(txURLBase, ev.TransactionHash),
			})
		}
		view.Buckets = append(view.Buckets, bv)
	}
	return view
}
