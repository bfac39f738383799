package entity

import (
	"time"
)

// Category is the direction of an event relative to the active account
type Category string

const (
	CategoryIncoming Category = "incoming"
	CategoryOutgoing Category = "outgoing"
	CategoryApproval Category = "approval"
)

// Categories lists every category in display order
var Categories = []Category{CategoryIncoming, CategoryOutgoing, CategoryApproval}

// ProcessedEvent is the canonical, classified representation of a history entry
type ProcessedEvent struct {
	ID                  string   `json:"id"`
	Category            Category `json:"category"`
	TokenSymbol         string   `json:"token_symbol"`
	Amount              string   `json:"amount"`
	CounterpartyAddress string   `json:"counterparty_address"`
	TransactionHash     string   `json:"transaction_hash"`
	TimestampMillis     int64    `json:"timestamp_millis"`

	// From and To are kept for classification; they are not part of the rendered view
	From       string `json:"-"`
	To         string `json:"-"`
	IsApproval bool   `json:"-"`
}

// Time returns the event timestamp
func (e ProcessedEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMillis)
}

// GroupedBucket holds the events that share one relative date label
type GroupedBucket struct {
	DateLabel string           `json:"date_label"`
	Events    []ProcessedEvent `json:"events"`
}

// Snapshot is the rendering surface for one active account
type Snapshot struct {
	Account   string           `json:"account"`
	Events    []ProcessedEvent `json:"-"`
	Buckets   []GroupedBucket  `json:"buckets"`
	Tokens    []TokenInfo      `json:"tokens"`
	Loading   bool             `json:"loading"`
	LastError string           `json:"last_error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsEmpty reports whether a completed fetch legitimately produced no events
func (s Snapshot) IsEmpty() bool {
	return !s.Loading && s.LastError == "" && len(s.Events) == 0
}

// HistorySummary is published after every applied refresh
type HistorySummary struct {
	Account   string           `json:"account"`
	Events    int              `json:"events"`
	Counts    map[Category]int `json:"counts"`
	Partial   bool             `json:"partial"`
	UpdatedAt time.Time        `json:"updated_at"`
}
