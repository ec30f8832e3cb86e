package amm

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// State is an immutable snapshot of a pool's reserves, liquidity supply and
// fee rate.
type State struct {
	ReserveA       uint256.Int
	ReserveB       uint256.Int
	TotalLiquidity uint256.Int
	FeeBasisPoints uint64
}

// K returns reserveA*reserveB. The product can exceed 256 bits.
func (s State) K() *big.Int {
	return new(big.Int).Mul(s.ReserveA.ToBig(), s.ReserveB.ToBig())
}

func (s State) reserves(inputIsAssetA bool) (in, out *uint256.Int) {
	if inputIsAssetA {
		return &s.ReserveA, &s.ReserveB
	}
	return &s.ReserveB, &s.ReserveA
}

func (s State) withReserves(inputIsAssetA bool, in, out *uint256.Int) State {
	next := s
	if inputIsAssetA {
		next.ReserveA, next.ReserveB = *in, *out
	} else {
		next.ReserveB, next.ReserveA = *in, *out
	}
	return next
}

// Pool is the authoritative record for one trading pair. All mutation goes
// through commit while mu is held, so readers only ever see whole states.
type Pool struct {
	id             common.Address
	tokenA         common.Address
	tokenB         common.Address
	liquidityToken common.Address

	mu     sync.Mutex
	active bool
	state  State
}

// NewPool returns an uninitialized pool for the pair. Token order does not
// matter: asset A is always the lower address.
func NewPool(tokenA, tokenB common.Address) (*Pool, error) {
	id, err := PoolAddress(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	a, b := sortTokens(tokenA, tokenB)
	return &Pool{
		id:             id,
		tokenA:         a,
		tokenB:         b,
		liquidityToken: LiquidityTokenAddress(id),
	}, nil
}

// PoolAddress derives the pool id from the sorted token pair.
func PoolAddress(tokenA, tokenB common.Address) (common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, ErrIdenticalTokens
	}
	a, b := sortTokens(tokenA, tokenB)
	hash := crypto.Keccak256(a.Bytes(), b.Bytes())
	return common.BytesToAddress(hash[12:]), nil
}

// LiquidityTokenAddress is the ledger asset that represents claims on pool.
func LiquidityTokenAddress(pool common.Address) common.Address {
	hash := crypto.Keccak256(pool.Bytes(), []byte("liquidity"))
	return common.BytesToAddress(hash[12:])
}

func sortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

func (p *Pool) ID() common.Address             { return p.id }
func (p *Pool) TokenA() common.Address         { return p.tokenA }
func (p *Pool) TokenB() common.Address         { return p.tokenB }
func (p *Pool) LiquidityToken() common.Address { return p.liquidityToken }

// InputIsAssetA resolves which side of the pool token trades on.
func (p *Pool) InputIsAssetA(token common.Address) (bool, error) {
	switch token {
	case p.tokenA:
		return true, nil
	case p.tokenB:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrTokenNotInPool, token.Hex())
	}
}

func (p *Pool) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Snapshot returns a copy of the current state.
func (p *Pool) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pool) ReserveA() *uint256.Int {
	s := p.Snapshot()
	return &s.ReserveA
}

func (p *Pool) ReserveB() *uint256.Int {
	s := p.Snapshot()
	return &s.ReserveB
}

func (p *Pool) TotalLiquidity() *uint256.Int {
	s := p.Snapshot()
	return &s.TotalLiquidity
}

func (p *Pool) FeeBasisPoints() uint64 {
	return p.Snapshot().FeeBasisPoints
}

// view runs fn against the active state without mutating it.
func (p *Pool) view(fn func(cur State) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return ErrNotInitialized
	}
	return fn(p.state)
}

// update computes the next state from the current one and commits it.
func (p *Pool) update(plan func(cur State) (State, error), settle func(cur, next State) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return ErrNotInitialized
	}
	cur := p.state
	next, err := plan(cur)
	if err != nil {
		return err
	}
	var hook func() error
	if settle != nil {
		hook = func() error { return settle(cur, next) }
	}
	return p.commit(next, hook)
}

// commit validates next against the current state, runs settle, and only
// then replaces the state. Any error leaves the pool unchanged. Callers hold
// p.mu.
func (p *Pool) commit(next State, settle func() error) error {
	if err := checkTransition(p.state, next); err != nil {
		return err
	}
	if settle != nil {
		if err := settle(); err != nil {
			return err
		}
	}
	p.state = next
	return nil
}

// checkTransition enforces that reserves per unit of liquidity never shrink:
// rA'*rB'*L^2 >= rA*rB*L'^2. With an unchanged supply this is k' >= k.
func checkTransition(prev, next State) error {
	if next.FeeBasisPoints != prev.FeeBasisPoints {
		return fmt.Errorf("%w: fee changed from %d to %d", ErrInvariantViolation, prev.FeeBasisPoints, next.FeeBasisPoints)
	}
	if next.TotalLiquidity.IsZero() {
		if !next.ReserveA.IsZero() || !next.ReserveB.IsZero() {
			return fmt.Errorf("%w: reserves left without liquidity", ErrInvariantViolation)
		}
		return nil
	}
	if next.ReserveA.IsZero() || next.ReserveB.IsZero() {
		return fmt.Errorf("%w: liquidity left without reserves", ErrInvariantViolation)
	}

	prevL := prev.TotalLiquidity.ToBig()
	nextL := next.TotalLiquidity.ToBig()
	lhs := next.K()
	lhs.Mul(lhs, prevL).Mul(lhs, prevL)
	rhs := prev.K()
	rhs.Mul(rhs, nextL).Mul(rhs, nextL)
	if lhs.Cmp(rhs) < 0 {
		return fmt.Errorf("%w: k per liquidity decreased", ErrInvariantViolation)
	}
	return nil
}
