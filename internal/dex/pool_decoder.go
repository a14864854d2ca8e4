package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"monadAMM/internal/model"
)

// PoolDecoder decodes journaled pool event logs.
type PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewPoolDecoder builds a pool event decoder.
func NewPoolDecoder() (*PoolDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &PoolDecoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PoolDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *PoolDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	var (
		decoded interface{}
		err     error
	)
	switch name {
	case "Swap":
		decoded, err = d.decodeSwap(log)
	case "LiquidityAdded", "LiquidityRemoved":
		decoded, err = d.decodeLiquidity(name, log)
	case "BadgeIssued":
		decoded, err = d.decodeBadge(log)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}

	if ctx.Logger != nil {
		ctx.Logger.Debug("decoded event",
			zap.String("event", name),
			zap.Uint64("sequence", log.Sequence),
			zap.Uint64("log_index", log.LogIndex),
		)
	}
	return buildTypedEvent(log, name, decoded, ctx.PoolMeta), nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta model.PoolMeta) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		ChainID:   log.ChainID,
		Sequence:  log.Sequence,
		TxHash:    log.TxHash,
		LogIndex:  log.LogIndex,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		PoolMeta:  meta,
		Raw:       raw,
	}
}

func (d *PoolDecoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events["Swap"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	var indexed struct {
		Trader   common.Address
		TokenIn  common.Address
		TokenOut common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	amounts, err := unpackAmounts(event, log.Data, 5)
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Trader:    indexed.Trader.Hex(),
		TokenIn:   assetLabel(indexed.TokenIn),
		TokenOut:  assetLabel(indexed.TokenOut),
		AmountIn:  amounts[0],
		AmountOut: amounts[1],
		Fee:       amounts[2],
		ReserveA:  amounts[3],
		ReserveB:  amounts[4],
	}, nil
}

func (d *PoolDecoder) decodeLiquidity(name string, log model.LogRecord) (model.LiquidityEventData, error) {
	event := d.poolABI.Events[name]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.LiquidityEventData{}, err
	}

	var indexed struct {
		Provider common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.LiquidityEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	amounts, err := unpackAmounts(event, log.Data, 6)
	if err != nil {
		return model.LiquidityEventData{}, err
	}

	return model.LiquidityEventData{
		Provider:    indexed.Provider.Hex(),
		AmountA:     amounts[0],
		AmountB:     amounts[1],
		Shares:      amounts[2],
		ReserveA:    amounts[3],
		ReserveB:    amounts[4],
		TotalSupply: amounts[5],
	}, nil
}

func (d *PoolDecoder) decodeBadge(log model.LogRecord) (model.BadgeIssuedEventData, error) {
	event := d.poolABI.Events["BadgeIssued"]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.BadgeIssuedEventData{}, err
	}

	var indexed struct {
		Owner   common.Address
		TokenId *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.BadgeIssuedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.BadgeIssuedEventData{}, err
	}
	if len(values) != 1 {
		return model.BadgeIssuedEventData{}, fmt.Errorf("unexpected badge values: %d", len(values))
	}
	uri, ok := values[0].(string)
	if !ok {
		return model.BadgeIssuedEventData{}, fmt.Errorf("unsupported metadata uri type %T", values[0])
	}

	return model.BadgeIssuedEventData{
		Owner:       indexed.Owner.Hex(),
		TokenID:     indexed.TokenId.String(),
		MetadataURI: uri,
	}, nil
}

// assetLabel renders a logged asset address, mapping the zero address back to
// the native coin.
func assetLabel(addr common.Address) string {
	if addr == (common.Address{}) {
		return "native"
	}
	return addr.Hex()
}

func unpackAmounts(event abi.Event, dataHex string, want int) ([]string, error) {
	values, err := unpackNonIndexed(event, dataHex)
	if err != nil {
		return nil, err
	}
	if len(values) != want {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	out := make([]string, 0, want)
	for _, value := range values {
		amount, err := asBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, amount.String())
	}
	return out, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
