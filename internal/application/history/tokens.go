package history

import (
	"strings"

	"wallet-history-indexer/internal/domain/entity"
)

// DetectTokens lists every token contract seen in records, first occurrence
// wins. Native records carry no contract and are skipped.
func DetectTokens(records []*entity.RawLedgerRecord) []entity.TokenInfo {
	seen := make(map[string]struct{})
	tokens := make([]entity.TokenInfo, 0)

	for _, rec := range records {
		if rec == nil || rec.Kind == entity.RecordKindNative {
			continue
		}
		addr := strings.ToLower(strings.TrimSpace(rec.ContractAddress))
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}

		tokens = append(tokens, entity.TokenInfo{
			Address:  addr,
			Name:     rec.TokenName,
			Symbol:   orDefault(rec.TokenSymbol, unknownSymbol),
			Decimals: parseDecimals(rec.TokenDecimal),
		})
	}

	return tokens
}
