package history

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"wallet-history-indexer/internal/domain/entity"

	"github.com/shopspring/decimal"
)

const (
	defaultDecimals = 18
	// ERC20 decimals is a uint8
	maxDecimals     = 255
	unknownSymbol   = "UNKNOWN"
	zeroAmount      = "0"
)

// Normalizer maps raw ledger records of every kind onto ProcessedEvent.
// Category and counterparty are left for the Classifier.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer; now supplies the timestamp of records that carry none
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// NormalizeAll converts records in order; malformed fields are repaired, never dropped
func (n *Normalizer) NormalizeAll(records []*entity.RawLedgerRecord) []entity.ProcessedEvent {
	events := make([]entity.ProcessedEvent, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		events = append(events, n.Normalize(rec))
	}
	return events
}

// Normalize converts a single record
func (n *Normalizer) Normalize(rec *entity.RawLedgerRecord) entity.ProcessedEvent {
	var symbol string
	var decimals int

	switch rec.Kind {
	case entity.RecordKindNative:
		symbol = orDefault(rec.TokenSymbol, entity.NativeSymbol)
		decimals = parseDecimals(rec.TokenDecimal)
	case entity.RecordKindToken, entity.RecordKindLog:
		symbol = orDefault(rec.TokenSymbol, unknownSymbol)
		decimals = parseDecimals(rec.TokenDecimal)
	default:
		symbol = orDefault(rec.TokenSymbol, unknownSymbol)
		decimals = defaultDecimals
	}

	timestamp := n.now().UnixMilli()
	if secs, ok := rec.UnixSeconds(); ok {
		timestamp = secs * 1000
	}

	return entity.ProcessedEvent{
		ID:              EventID(rec),
		TokenSymbol:     symbol,
		Amount:          FormatAmount(rec.Value, decimals),
		TransactionHash: rec.Hash,
		TimestampMillis: timestamp,
		From:            rec.From,
		To:              rec.To,
		IsApproval:      rec.IsApproval(),
	}
}

// EventID derives the stable identity of a record: the transaction hash, joined
// with the log position when one is known
func EventID(rec *entity.RawLedgerRecord) string {
	hash := strings.ToLower(strings.TrimSpace(rec.Hash))
	logIndex := strings.TrimSpace(rec.LogIndex)

	switch {
	case hash == "":
		return fmt.Sprintf("nohash-%s-%s-%s-%s-%s", rec.Kind, rec.TimeStamp,
			strings.ToLower(rec.From), strings.ToLower(rec.To), rec.Value)
	case logIndex != "":
		return hash + "-" + logIndex
	case rec.Kind == entity.RecordKindNative:
		return hash
	default:
		// token transfer without a log position; several may share one hash
		return fmt.Sprintf("%s-%s-%s-%s-%s", hash, strings.ToLower(rec.ContractAddress),
			strings.ToLower(rec.From), strings.ToLower(rec.To), rec.Value)
	}
}

// FormatAmount renders an integer smallest-unit value as value / 10^decimals.
// A value that is not a base-10 integer renders as "0".
func FormatAmount(value string, decimals int) string {
	v, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return zeroAmount
	}
	if decimals < 0 || decimals > maxDecimals {
		decimals = defaultDecimals
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

func parseDecimals(s string) int {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || d < 0 || d > maxDecimals {
		return defaultDecimals
	}
	return d
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
