package blockchain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	account = common.HexToAddress("0x1111111111111111111111111111111111111111")
	peer    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	daiAddr = common.HexToAddress("0x1D70D57ccD2798323232B2dD027B3aBcA5C00091")
)

type fakeChain struct {
	latest    uint64
	logs      []types.Log
	times     map[uint64]uint64
	filterErr error

	queries       []ethereum.FilterQuery
	headerQueries int
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeChain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	f.headerQueries++
	return &types.Header{Number: number, Time: f.times[number.Uint64()]}, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	if f.filterErr != nil {
		return nil, f.filterErr
	}

	var out []types.Log
	for _, lg := range f.logs {
		if matches(q, lg) {
			out = append(out, lg)
		}
	}
	return out, nil
}

func matches(q ethereum.FilterQuery, lg types.Log) bool {
	if len(q.Addresses) > 0 && q.Addresses[0] != lg.Address {
		return false
	}
	if bn := q.FromBlock; bn != nil && lg.BlockNumber < bn.Uint64() {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(lg.Topics) {
			return false
		}
		found := false
		for _, topic := range alternatives {
			if lg.Topics[i] == topic {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func erc20Log(sig common.Hash, from, to common.Address, value int64, block uint64, tx string, index uint) types.Log {
	return types.Log{
		Address:     daiAddr,
		Topics:      []common.Hash{sig, addressTopic(from), addressTopic(to)},
		Data:        common.LeftPadBytes(big.NewInt(value).Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.HexToHash(tx),
		Index:       index,
	}
}

func newTestLogSource(t *testing.T, chain *fakeChain) *LogSource {
	t.Helper()
	decoder, err := NewERC20LogDecoder()
	require.NoError(t, err)

	cfg := &config.ChainConfig{
		BlockWindow: 5000,
		Tokens: []config.TokenConfig{
			{Symbol: "DAI", Address: daiAddr.Hex(), Decimals: 18},
		},
	}
	return NewLogSource(chain, decoder, cfg, logger.NewNop())
}

func TestLogSource_FetchesTransfersAndApprovals(t *testing.T) {
	chain := &fakeChain{
		latest: 10000,
		times:  map[uint64]uint64{9000: 1700000000, 9500: 1700001000},
		logs: []types.Log{
			erc20Log(transferEventSignature, account, peer, 1, 9000, "0xaa", 0),
			erc20Log(transferEventSignature, peer, account, 2, 9500, "0xbb", 3),
			erc20Log(approvalEventSignature, account, peer, 3, 9500, "0xcc", 1),
			erc20Log(transferEventSignature, peer, peer, 4, 9500, "0xdd", 0),
		},
	}
	src := newTestLogSource(t, chain)

	res, err := src.Fetch(context.Background(), account.Hex())
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Len(t, chain.queries, 3)
	assert.Equal(t, uint64(5000), chain.queries[0].FromBlock.Uint64())
	assert.Equal(t, uint64(10000), chain.queries[0].ToBlock.Uint64())
	assert.Equal(t, 2, chain.headerQueries, "block timestamps are cached")

	var approval *entity.RawLedgerRecord
	for _, rec := range res.Records {
		assert.Equal(t, entity.RecordKindLog, rec.Kind)
		assert.Equal(t, "DAI", rec.TokenSymbol)
		assert.Equal(t, "18", rec.TokenDecimal)
		if rec.IsApproval() {
			approval = rec
		}
	}
	require.NotNil(t, approval)
	assert.True(t, strings.EqualFold(peer.Hex(), approval.To))
	assert.Equal(t, "3", approval.Value)
	assert.Equal(t, "1", approval.LogIndex)
	assert.Equal(t, "1700000000", res.Records[2].TimeStamp)
}

func TestLogSource_SelfTransferEmittedOnce(t *testing.T) {
	chain := &fakeChain{
		latest: 100,
		times:  map[uint64]uint64{50: 1700000000},
		logs: []types.Log{
			erc20Log(transferEventSignature, account, account, 7, 50, "0xee", 2),
		},
	}
	src := newTestLogSource(t, chain)

	res, err := src.Fetch(context.Background(), account.Hex())
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, uint64(0), chain.queries[0].FromBlock.Uint64(), "window is clamped at genesis")
}

func TestLogSource_QueryFailureFailsFetch(t *testing.T) {
	chain := &fakeChain{latest: 100, filterErr: errors.New("too many requests")}
	src := newTestLogSource(t, chain)

	_, err := src.Fetch(context.Background(), account.Hex())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many requests")
}

func TestLogSource_AccountValidation(t *testing.T) {
	chain := &fakeChain{latest: 100}
	src := newTestLogSource(t, chain)

	res, err := src.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Records)

	_, err = src.Fetch(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, service.ErrInvalidAddress)
	assert.Empty(t, chain.queries)
}

func TestERC20LogDecoder_RejectsUnknownEvent(t *testing.T) {
	decoder, err := NewERC20LogDecoder()
	require.NoError(t, err)

	lg := erc20Log(common.HexToHash("0x1234"), account, peer, 1, 1, "0x01", 0)
	_, err = decoder.Decode(&lg, config.TokenConfig{Symbol: "DAI", Decimals: 18})
	assert.Error(t, err)
}
