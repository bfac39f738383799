package history

import (
	"testing"

	"wallet-history-indexer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTokens(t *testing.T) {
	first := tokenRecord("0x1", "0", other, user, "1", fixedNow)
	first.ContractAddress = "0x1D70D57ccD2798323232B2dD027B3aBcA5C00091"
	again := tokenRecord("0x2", "0", other, user, "1", fixedNow)
	again.TokenSymbol = "RENAMED"
	unnamed := &entity.RawLedgerRecord{
		Kind:            entity.RecordKindLog,
		ContractAddress: "0xc891481a0aac630f4d89744ccd2c7d2c4215fd47",
		TokenDecimal:    "6",
	}
	native := nativeRecord("0x3", user, other, "1", fixedNow)

	tokens := DetectTokens([]*entity.RawLedgerRecord{native, first, again, unnamed})

	require.Len(t, tokens, 2)
	assert.Equal(t, entity.TokenInfo{Address: dai, Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18}, tokens[0])
	assert.Equal(t, "UNKNOWN", tokens[1].Symbol)
	assert.Equal(t, 6, tokens[1].Decimals)
}

func TestExplorerTxURL(t *testing.T) {
	assert.Equal(t, "https://etherscan.io/tx/0xabc", ExplorerTxURL("https://etherscan.io/", "0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", ExplorerTxURL("https://sepolia.etherscan.io", "0xabc"))
	assert.Empty(t, ExplorerTxURL("https://etherscan.io", ""))
}
