package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/logger"
	"wallet-history-indexer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const defaultBlockWindow = 5000

// LogSource reads ERC20 Transfer and Approval logs of the watched tokens
// directly from a node, over a trailing window of blocks
type LogSource struct {
	reader  ChainReader
	decoder *ERC20LogDecoder
	tokens  []config.TokenConfig
	window  uint64
	logger  *logger.Logger
}

// NewLogSource creates a new on-chain log source
func NewLogSource(reader ChainReader, decoder *ERC20LogDecoder, cfg *config.ChainConfig, log *logger.Logger) *LogSource {
	window := cfg.BlockWindow
	if window == 0 {
		window = defaultBlockWindow
	}
	return &LogSource{
		reader:  reader,
		decoder: decoder,
		tokens:  cfg.Tokens,
		window:  window,
		logger:  log.WithComponent("chain-log-source"),
	}
}

// Name identifies the source in logs
func (s *LogSource) Name() string {
	return "chain"
}

// Kinds lists the record kinds the source produces
func (s *LogSource) Kinds() []entity.RecordKind {
	return []entity.RecordKind{entity.RecordKindLog}
}

// Fetch collects the account's token transfers in either direction and the
// approvals it granted. Any failed query fails the whole fetch.
func (s *LogSource) Fetch(ctx context.Context, account string) (*service.FetchResult, error) {
	result := &service.FetchResult{Failures: map[entity.RecordKind]error{}}
	if account == "" {
		return result, nil
	}
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidAddress, account)
	}

	latest, err := s.reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: latest block: %w", err)
	}
	fromBlock := uint64(0)
	if latest > s.window {
		fromBlock = latest - s.window
	}

	accountTopic := addressTopic(common.HexToAddress(account))
	timestamps := make(map[uint64]uint64)
	seen := make(map[string]struct{})

	for _, token := range s.tokens {
		contract := common.HexToAddress(token.Address)
		queries := [][][]common.Hash{
			{{transferEventSignature}, {accountTopic}},
			{{transferEventSignature}, nil, {accountTopic}},
			{{approvalEventSignature}, {accountTopic}},
		}

		for _, topics := range queries {
			logs, err := s.reader.FilterLogs(ctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(fromBlock),
				ToBlock:   new(big.Int).SetUint64(latest),
				Addresses: []common.Address{contract},
				Topics:    topics,
			})
			if err != nil {
				metrics.ChainLogQueriesTotal.WithLabelValues(token.Symbol, "error").Inc()
				return nil, fmt.Errorf("chain: %s logs: %w", token.Symbol, err)
			}
			metrics.ChainLogQueriesTotal.WithLabelValues(token.Symbol, "ok").Inc()

			for i := range logs {
				rec, err := s.record(ctx, &logs[i], token, seen, timestamps)
				if err != nil {
					return nil, err
				}
				if rec != nil {
					result.Records = append(result.Records, rec)
				}
			}
		}
	}

	entity.SortNewestFirst(result.Records)

	s.logger.Info("Fetched on-chain token logs",
		zap.String("account", account),
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", latest),
		zap.Int("records", len(result.Records)))

	return result, nil
}

// record decodes one log; duplicates and undecodable logs yield nil
func (s *LogSource) record(ctx context.Context, lg *types.Log, token config.TokenConfig,
	seen map[string]struct{}, timestamps map[uint64]uint64) (*entity.RawLedgerRecord, error) {

	if lg.Removed {
		return nil, nil
	}

	key := lg.TxHash.Hex() + "-" + strconv.FormatUint(uint64(lg.Index), 10)
	if _, ok := seen[key]; ok {
		return nil, nil
	}
	seen[key] = struct{}{}

	rec, err := s.decoder.Decode(lg, token)
	if err != nil {
		s.logger.Debug("Skipping undecodable log",
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.Uint("log_index", lg.Index),
			zap.Error(err))
		return nil, nil
	}

	ts, ok := timestamps[lg.BlockNumber]
	if !ok {
		header, err := s.reader.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
		if err != nil {
			return nil, fmt.Errorf("chain: header %d: %w", lg.BlockNumber, err)
		}
		ts = header.Time
		timestamps[lg.BlockNumber] = ts
	}
	rec.TimeStamp = strconv.FormatUint(ts, 10)

	return rec, nil
}
