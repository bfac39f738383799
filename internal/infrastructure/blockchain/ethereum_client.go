package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ChainReader is the subset of node RPC used by the log source
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// EthereumClient provides blockchain interaction capabilities
type EthereumClient struct {
	*ethclient.Client
	rpcURL string
	logger *logger.Logger
}

// NewEthereumClient dials the JSON-RPC endpoint
func NewEthereumClient(ctx context.Context, rpcURL string, timeout time.Duration, log *logger.Logger) (*EthereumClient, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum node: %w", err)
	}

	log = log.WithComponent("ethereum-client")
	log.Info("Connected to ethereum node", zap.String("rpc_url", rpcURL))

	return &EthereumClient{
		Client: client,
		rpcURL: rpcURL,
		logger: log,
	}, nil
}

// Close closes the RPC connection
func (ec *EthereumClient) Close() {
	ec.Client.Close()
	ec.logger.Info("Ethereum client closed")
}
