package amm

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is a notification produced by a committed pool operation.
type Event interface {
	EventName() string
}

// SwapEvent reports an executed swap and the reserves after it.
type SwapEvent struct {
	Trader    common.Address
	AssetIn   Asset
	AssetOut  Asset
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
	Fee       *uint256.Int
	ReserveA  *uint256.Int
	ReserveB  *uint256.Int
}

func (SwapEvent) EventName() string { return "Swap" }

// LiquidityChange carries the amounts moved by a deposit or withdrawal.
type LiquidityChange struct {
	Provider    common.Address
	AmountA     *uint256.Int
	AmountB     *uint256.Int
	Shares      *uint256.Int
	ReserveA    *uint256.Int
	ReserveB    *uint256.Int
	TotalSupply *uint256.Int
}

// LiquidityAddedEvent is emitted after shares are minted for a deposit.
type LiquidityAddedEvent struct {
	LiquidityChange
}

func (LiquidityAddedEvent) EventName() string { return "LiquidityAdded" }

// LiquidityRemovedEvent is emitted after shares are burned for a withdrawal.
type LiquidityRemovedEvent struct {
	LiquidityChange
}

func (LiquidityRemovedEvent) EventName() string { return "LiquidityRemoved" }

// BadgeIssuedEvent is emitted exactly once per provider.
type BadgeIssuedEvent struct {
	Badge Badge
}

func (BadgeIssuedEvent) EventName() string { return "BadgeIssued" }

// EventSink receives the events of each committed operation, in order.
type EventSink interface {
	Publish(ctx context.Context, events []Event) error
}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, events []Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps every published event; useful for tests and replays.
type MemorySink struct {
	Events []Event
}

func (m *MemorySink) Publish(_ context.Context, events []Event) error {
	m.Events = append(m.Events, events...)
	return nil
}
