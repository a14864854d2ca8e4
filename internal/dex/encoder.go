package dex

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"monadAMM/internal/amm"
	"monadAMM/internal/model"
)

// Encoder renders pool events as EVM-style log records.
type Encoder struct {
	poolABI abi.ABI
	chainID uint64
	pool    common.Address
}

// NewEncoder builds an encoder that stamps records with chainID and the pool address.
func NewEncoder(chainID uint64, pool common.Address) (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &Encoder{poolABI: poolABI, chainID: chainID, pool: pool}, nil
}

// Encode converts the events of one operation into log records. Log indexes
// start at zero for each operation.
func (e *Encoder) Encode(sequence uint64, txHash common.Hash, timestamp uint64, events []amm.Event) ([]model.LogRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]model.LogRecord, 0, len(events))
	for i, ev := range events {
		topics, data, err := e.encodeEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.EventName(), err)
		}
		hexTopics := make([]string, 0, len(topics))
		for _, topic := range topics {
			hexTopics = append(hexTopics, topic.Hex())
		}
		records = append(records, model.LogRecord{
			ChainID:    e.chainID,
			Sequence:   sequence,
			TxHash:     txHash.Hex(),
			LogIndex:   uint64(i),
			Address:    e.pool.Hex(),
			Topics:     hexTopics,
			Data:       hexutil.Encode(data),
			Timestamp:  timestamp,
			IngestedAt: now,
		})
	}
	return records, nil
}

func (e *Encoder) encodeEvent(ev amm.Event) ([]common.Hash, []byte, error) {
	event, ok := e.poolABI.Events[ev.EventName()]
	if !ok {
		return nil, nil, fmt.Errorf("unknown event %q", ev.EventName())
	}

	var (
		indexed []common.Hash
		values  []interface{}
	)
	switch v := ev.(type) {
	case amm.SwapEvent:
		indexed = []common.Hash{
			addressTopic(v.Trader),
			addressTopic(v.AssetIn.Address()),
			addressTopic(v.AssetOut.Address()),
		}
		values = bigs(v.AmountIn, v.AmountOut, v.Fee, v.ReserveA, v.ReserveB)
	case amm.LiquidityAddedEvent:
		indexed, values = liquidityFields(v.LiquidityChange)
	case amm.LiquidityRemovedEvent:
		indexed, values = liquidityFields(v.LiquidityChange)
	case amm.BadgeIssuedEvent:
		indexed = []common.Hash{
			addressTopic(v.Badge.Owner),
			common.BigToHash(new(big.Int).SetUint64(v.Badge.TokenID)),
		}
		values = []interface{}{v.Badge.MetadataURI}
	default:
		return nil, nil, fmt.Errorf("unsupported event type %T", ev)
	}

	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return nil, nil, fmt.Errorf("pack: %w", err)
	}
	return append([]common.Hash{event.ID}, indexed...), data, nil
}

func liquidityFields(c amm.LiquidityChange) ([]common.Hash, []interface{}) {
	return []common.Hash{addressTopic(c.Provider)},
		bigs(c.AmountA, c.AmountB, c.Shares, c.ReserveA, c.ReserveB, c.TotalSupply)
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func bigs(values ...*uint256.Int) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, new(big.Int))
			continue
		}
		out = append(out, v.ToBig())
	}
	return out
}
