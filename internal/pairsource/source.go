// Package pairsource reads Uniswap V2 pair state straight from contract
// storage and seeds local pools from it.
package pairsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityCore/internal/model"
)

// Storage layout of UniswapV2Pair:
//
//	slot 6: token0
//	slot 7: token1
//	slot 8: reserve0 (uint112) | reserve1 (uint112) | blockTimestampLast (uint32)
const (
	slotToken0   = 6
	slotToken1   = 7
	slotReserves = 8
)

var (
	ErrNotAPair      = errors.New("address does not look like a v2 pair")
	ErrEmptyReserves = errors.New("pair has empty reserves")
)

// StorageReader is the part of chain.Client the source needs.
type StorageReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	StorageAt(ctx context.Context, account common.Address, slot uint64, block uint64) ([]byte, error)
}

type Source struct {
	reader StorageReader
	logger *zap.Logger
}

func New(reader StorageReader, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{reader: reader, logger: logger}
}

// Reserves reads the pair's tokens and reserves at block, or at the latest
// block when block is zero.
func (s *Source) Reserves(ctx context.Context, pair common.Address, block uint64) (model.PairReserves, error) {
	if block == 0 {
		latest, err := s.reader.LatestBlockNumber(ctx)
		if err != nil {
			return model.PairReserves{}, fmt.Errorf("get latest block: %w", err)
		}
		block = latest
	}

	word0, err := s.reader.StorageAt(ctx, pair, slotToken0, block)
	if err != nil {
		return model.PairReserves{}, err
	}
	word1, err := s.reader.StorageAt(ctx, pair, slotToken1, block)
	if err != nil {
		return model.PairReserves{}, err
	}
	token0, token1 := common.BytesToAddress(word0), common.BytesToAddress(word1)
	if token0 == (common.Address{}) || token1 == (common.Address{}) || token0 == token1 {
		return model.PairReserves{}, fmt.Errorf("%w: %s", ErrNotAPair, pair.Hex())
	}

	packed, err := s.reader.StorageAt(ctx, pair, slotReserves, block)
	if err != nil {
		return model.PairReserves{}, err
	}
	reserve0, reserve1 := ParseReserves(packed)
	if reserve0.IsZero() || reserve1.IsZero() {
		return model.PairReserves{}, fmt.Errorf("%w: %s", ErrEmptyReserves, pair.Hex())
	}

	s.logger.Debug("pair reserves",
		zap.Stringer("pair", pair),
		zap.Uint64("block", block),
		zap.String("reserve0", reserve0.Dec()),
		zap.String("reserve1", reserve1.Dec()),
	)
	return model.PairReserves{
		Pair:        pair.Hex(),
		Token0:      token0.Hex(),
		Token1:      token1.Hex(),
		Reserve0:    reserve0.Dec(),
		Reserve1:    reserve1.Dec(),
		BlockNumber: block,
	}, nil
}

// ParseReserves unpacks the two uint112 reserves from the big-endian slot 8
// word.
func ParseReserves(b []byte) (reserve0, reserve1 *uint256.Int) {
	v := new(uint256.Int).SetBytes(b)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 112)
	mask.SubUint64(mask, 1)

	reserve0 = new(uint256.Int).And(v, mask)
	reserve1 = new(uint256.Int).Rsh(v, 112)
	reserve1.And(reserve1, mask)
	return reserve0, reserve1
}
