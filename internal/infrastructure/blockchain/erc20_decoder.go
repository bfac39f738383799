package blockchain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/infrastructure/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ERC20 event signatures
var (
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	approvalEventSignature = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
)

const erc20EventsABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "owner", "type": "address"},
			{"indexed": true, "name": "spender", "type": "address"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "Approval",
		"type": "event"
	}
]`

// ERC20LogDecoder turns Transfer and Approval logs into raw ledger records
type ERC20LogDecoder struct {
	abi abi.ABI
}

// NewERC20LogDecoder parses the ERC20 event ABI
func NewERC20LogDecoder() (*ERC20LogDecoder, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20EventsABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &ERC20LogDecoder{abi: parsed}, nil
}

// Decode converts lg emitted by token. The timestamp is left empty; block
// times are resolved by the caller.
func (d *ERC20LogDecoder) Decode(lg *types.Log, token config.TokenConfig) (*entity.RawLedgerRecord, error) {
	if len(lg.Topics) != 3 {
		return nil, fmt.Errorf("unexpected topic count %d in log %s-%d", len(lg.Topics), lg.TxHash.Hex(), lg.Index)
	}

	var event entity.LogEvent
	switch lg.Topics[0] {
	case transferEventSignature:
		event = entity.LogEventTransfer
	case approvalEventSignature:
		event = entity.LogEventApproval
	default:
		return nil, fmt.Errorf("unsupported event %s", lg.Topics[0].Hex())
	}

	values, err := d.abi.Unpack(string(event), lg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s data: %w", event, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s data length %d", event, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s value type %T", event, values[0])
	}

	return &entity.RawLedgerRecord{
		Kind:            entity.RecordKindLog,
		Event:           event,
		BlockNumber:     strconv.FormatUint(lg.BlockNumber, 10),
		Hash:            lg.TxHash.Hex(),
		From:            topicAddress(lg.Topics[1]).Hex(),
		To:              topicAddress(lg.Topics[2]).Hex(),
		Value:           value.String(),
		ContractAddress: strings.ToLower(lg.Address.Hex()),
		TokenName:       token.Symbol,
		TokenSymbol:     token.Symbol,
		TokenDecimal:    strconv.Itoa(token.Decimals),
		LogIndex:        strconv.FormatUint(uint64(lg.Index), 10),
	}, nil
}

// topicAddress extracts an address from an indexed topic
func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes())
}

// addressTopic left-pads an address into an indexed topic
func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
