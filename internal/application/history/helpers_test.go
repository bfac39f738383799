package history

import (
	"strconv"
	"time"

	"wallet-history-indexer/internal/domain/entity"
)

const (
	user  = "0x1111111111111111111111111111111111111111"
	other = "0x2222222222222222222222222222222222222222"
	third = "0x3333333333333333333333333333333333333333"
	dai   = "0x1d70d57ccd2798323232b2dd027b3abca5c00091"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func nativeRecord(hash, from, to, value string, ts time.Time) *entity.RawLedgerRecord {
	return &entity.RawLedgerRecord{
		Kind:         entity.RecordKindNative,
		TimeStamp:    unix(ts),
		Hash:         hash,
		From:         from,
		To:           to,
		Value:        value,
		TokenName:    entity.NativeName,
		TokenSymbol:  entity.NativeSymbol,
		TokenDecimal: "18",
	}
}

func tokenRecord(hash, logIndex, from, to, value string, ts time.Time) *entity.RawLedgerRecord {
	return &entity.RawLedgerRecord{
		Kind:            entity.RecordKindToken,
		TimeStamp:       unix(ts),
		Hash:            hash,
		From:            from,
		To:              to,
		Value:           value,
		ContractAddress: dai,
		TokenName:       "Dai Stablecoin",
		TokenSymbol:     "DAI",
		TokenDecimal:    "18",
		LogIndex:        logIndex,
	}
}
