package dex

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"monadAMM/internal/amm"
	"monadAMM/internal/model"
)

var (
	testPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTrader = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testToken  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func encodeOne(t *testing.T, ev amm.Event) model.LogRecord {
	t.Helper()
	encoder, err := NewEncoder(10143, testPool)
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	records, err := encoder.Encode(7, common.HexToHash("0xdef"), 1700000000, []amm.Event{ev})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	return records[0]
}

func decodeOne(t *testing.T, record model.LogRecord) *model.TypedEvent {
	t.Helper()
	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode(record.Topics[0]) {
		t.Fatalf("decoder rejects topic %s", record.Topics[0])
	}
	event, err := decoder.Decode(record, DecodeContext{
		PoolMeta: model.PoolMeta{TokenA: testToken.Hex(), TokenB: "native", FeeBps: 30},
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return event
}

func TestSwapEventCodec(t *testing.T) {
	record := encodeOne(t, amm.SwapEvent{
		Trader:    testTrader,
		AssetIn:   amm.Token(testToken),
		AssetOut:  amm.Native(),
		AmountIn:  uint256.NewInt(10),
		AmountOut: uint256.NewInt(34),
		Fee:       uint256.NewInt(1),
		ReserveA:  uint256.NewInt(110),
		ReserveB:  uint256.NewInt(366),
	})
	if len(record.Topics) != 4 {
		t.Fatalf("swap topics = %d, want 4", len(record.Topics))
	}
	if record.Sequence != 7 || record.Address != testPool.Hex() || record.LogIndex != 0 {
		t.Fatalf("record header mismatch: %+v", record)
	}

	event := decodeOne(t, record)
	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", event.Decoded)
	}
	if swap.Trader != testTrader.Hex() || swap.TokenIn != testToken.Hex() || swap.TokenOut != "native" {
		t.Fatalf("address mismatch: %+v", swap)
	}
	if swap.AmountIn != "10" || swap.AmountOut != "34" || swap.Fee != "1" || swap.ReserveA != "110" || swap.ReserveB != "366" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if event.EventName != "Swap" || event.PoolMeta.FeeBps != 30 {
		t.Fatalf("event metadata mismatch: %+v", event)
	}
}

func TestLiquidityEventCodec(t *testing.T) {
	large, _ := amm.ParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	change := amm.LiquidityChange{
		Provider:    testTrader,
		AmountA:     uint256.NewInt(100),
		AmountB:     large,
		Shares:      uint256.NewInt(200),
		ReserveA:    uint256.NewInt(100),
		ReserveB:    uint256.NewInt(400),
		TotalSupply: uint256.NewInt(200),
	}

	for _, ev := range []amm.Event{amm.LiquidityAddedEvent{LiquidityChange: change}, amm.LiquidityRemovedEvent{LiquidityChange: change}} {
		event := decodeOne(t, encodeOne(t, ev))
		if event.EventName != ev.EventName() {
			t.Fatalf("event name %s, want %s", event.EventName, ev.EventName())
		}
		data, ok := event.Decoded.(model.LiquidityEventData)
		if !ok {
			t.Fatalf("decoded type mismatch: %T", event.Decoded)
		}
		if data.Provider != testTrader.Hex() || data.AmountB != amm.Dec(large) || data.Shares != "200" || data.TotalSupply != "200" {
			t.Fatalf("liquidity mismatch: %+v", data)
		}
	}
}

func TestBadgeEventCodec(t *testing.T) {
	record := encodeOne(t, amm.BadgeIssuedEvent{Badge: amm.Badge{
		Owner:       testTrader,
		TokenID:     3,
		MetadataURI: amm.DefaultBadgeBaseURI + "3.json",
	}})
	if len(record.Topics) != 3 {
		t.Fatalf("badge topics = %d, want 3", len(record.Topics))
	}

	badge, ok := decodeOne(t, record).Decoded.(model.BadgeIssuedEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if badge.Owner != testTrader.Hex() || badge.TokenID != "3" || badge.MetadataURI != amm.DefaultBadgeBaseURI+"3.json" {
		t.Fatalf("badge mismatch: %+v", badge)
	}
}

func TestDecodeRejectsMalformedRecords(t *testing.T) {
	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	record := encodeOne(t, amm.BadgeIssuedEvent{Badge: amm.Badge{Owner: testTrader, TokenID: 1}})

	noTopics := record
	noTopics.Topics = nil
	if _, err := decoder.Decode(noTopics, DecodeContext{}); err == nil {
		t.Fatalf("expected error for missing topics")
	}

	unknown := record
	unknown.Topics = append([]string{common.HexToHash("0x01").Hex()}, record.Topics[1:]...)
	if decoder.CanDecode(unknown.Topics[0]) {
		t.Fatalf("unknown topic accepted")
	}

	short := record
	short.Topics = record.Topics[:2]
	if _, err := decoder.Decode(short, DecodeContext{}); err == nil {
		t.Fatalf("expected error for missing indexed topic")
	}

	badData := record
	badData.Data = "0xzz"
	if _, err := decoder.Decode(badData, DecodeContext{}); err == nil {
		t.Fatalf("expected error for invalid data")
	}
}
