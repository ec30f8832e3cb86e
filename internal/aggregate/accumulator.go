package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"liquidityCore/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress string
	TokenA      string
	TokenB      string
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	Volume0     *big.Int
	Volume1     *big.Int
	Fee0        *big.Int
	Fee1        *big.Int
	Reserve0    *big.Int
	Reserve1    *big.Int
	LastSeq     uint64
	LastTS      uint64
}

func NewAccumulator(record model.EventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Pool,
		TokenA:      record.Reserves.TokenA,
		TokenB:      record.Reserves.TokenB,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
		Reserve0:    big.NewInt(0),
		Reserve1:    big.NewInt(0),
		LastTS:      record.Timestamp,
	}
}

// AddEvent folds one event into the window. Every kind refreshes the
// reserves used for TVL; only swaps add volume and fees.
func (a *Accumulator) AddEvent(record model.EventRecord) error {
	if record.Seq >= a.LastSeq {
		reserve0, err := parseBigInt(record.Reserves.ReserveA)
		if err != nil {
			return err
		}
		reserve1, err := parseBigInt(record.Reserves.ReserveB)
		if err != nil {
			return err
		}
		a.Reserve0, a.Reserve1 = reserve0, reserve1
		a.LastSeq = record.Seq
	}
	if record.Timestamp > a.LastTS {
		a.LastTS = record.Timestamp
	}

	switch strings.ToLower(record.Kind) {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	fee, err := parseBigInt(swap.FeeAmount)
	if err != nil {
		return err
	}

	switch {
	case strings.EqualFold(swap.TokenIn, a.TokenA):
		a.Volume0.Add(a.Volume0, amountIn)
		a.Volume1.Add(a.Volume1, amountOut)
		a.Fee0.Add(a.Fee0, fee)
	case strings.EqualFold(swap.TokenIn, a.TokenB):
		a.Volume1.Add(a.Volume1, amountIn)
		a.Volume0.Add(a.Volume0, amountOut)
		a.Fee1.Add(a.Fee1, fee)
	default:
		return fmt.Errorf("swap token %s not in pool %s", swap.TokenIn, a.PoolAddress)
	}

	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
