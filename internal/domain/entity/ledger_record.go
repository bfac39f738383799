package entity

import (
	"sort"
	"strconv"
	"strings"
)

// RecordKind discriminates the source shape of a raw ledger record
type RecordKind string

const (
	// RecordKindNative is a native-currency transfer from the explorer txlist action
	RecordKindNative RecordKind = "native"
	// RecordKindToken is an ERC20 transfer from the explorer tokentx action
	RecordKindToken RecordKind = "token"
	// RecordKindLog is an ERC20 Transfer or Approval log read directly from the chain
	RecordKindLog RecordKind = "log"
)

// LogEvent names the decoded ERC20 event carried by a RecordKindLog record
type LogEvent string

const (
	LogEventTransfer LogEvent = "Transfer"
	LogEventApproval LogEvent = "Approval"
)

// Native currency defaults
const (
	NativeSymbol   = "ETH"
	NativeName     = "Ether"
	NativeDecimals = 18
)

// RawLedgerRecord is an unprocessed history entry. Kind selects which of the
// optional fields are meaningful; numeric fields stay string-encoded exactly as
// the source delivered them.
type RawLedgerRecord struct {
	Kind        RecordKind `json:"kind"`
	BlockNumber string     `json:"block_number"`
	TimeStamp   string     `json:"timestamp"` // seconds since epoch
	Hash        string     `json:"hash"`
	From        string     `json:"from"`
	To          string     `json:"to"`
	Value       string     `json:"value"`

	// Token and log records
	ContractAddress string `json:"contract_address,omitempty"`
	TokenName       string `json:"token_name,omitempty"`
	TokenSymbol     string `json:"token_symbol,omitempty"`
	TokenDecimal    string `json:"token_decimal,omitempty"`

	// LogIndex is the log position inside the transaction, empty when unknown
	LogIndex string `json:"log_index,omitempty"`

	// Event is only set for RecordKindLog
	Event LogEvent `json:"event,omitempty"`
}

// IsApproval reports whether the record is an approval-type record
func (r *RawLedgerRecord) IsApproval() bool {
	return r.Kind == RecordKindLog && r.Event == LogEventApproval
}

// TokenInfo describes a token contract discovered from history records
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// UnixSeconds parses the string-encoded timestamp
func (r *RawLedgerRecord) UnixSeconds() (int64, bool) {
	secs, err := strconv.ParseInt(strings.TrimSpace(r.TimeStamp), 10, 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}

// SortNewestFirst orders records by timestamp descending, keeping the input
// order for equal timestamps; unparseable timestamps sort last
func SortNewestFirst(records []*RawLedgerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i].UnixSeconds()
		b, _ := records[j].UnixSeconds()
		return a > b
	})
}
