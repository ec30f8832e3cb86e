// Package ledger provides an in-process token ledger for the settlement
// engine.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/fixedpoint"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type balanceKey struct {
	owner common.Address
	asset common.Address
}

// Memory keeps balances in a map. Accounts with a zero balance are removed.
type Memory struct {
	mu       sync.Mutex
	balances map[balanceKey]uint256.Int
}

var _ amm.Ledger = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{balances: make(map[balanceKey]uint256.Int)}
}

// Credit mints amount of asset directly to owner. It is how external funds
// enter the ledger.
func (m *Memory) Credit(owner, asset common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := balanceKey{owner, asset}
	bal := m.balances[key]
	next, err := fixedpoint.Add(&bal, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", owner.Hex(), err)
	}
	m.set(key, next)
	return nil
}

func (m *Memory) Balance(owner, asset common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[balanceKey{owner, asset}]
	return &bal
}

func (m *Memory) Authorize(_ context.Context, owner, asset common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[balanceKey{owner, asset}]
	if bal.Lt(amount) {
		return fmt.Errorf(
			"%w: owner=%s asset=%s balance=%s amount=%s",
			ErrInsufficientBalance,
			owner.Hex(),
			asset.Hex(),
			bal.Dec(),
			amount.Dec(),
		)
	}
	return nil
}

// Apply stages every transfer against a scratch copy of the touched balances
// and writes them back only if all of them succeed.
func (m *Memory) Apply(_ context.Context, transfers []amm.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make(map[balanceKey]uint256.Int)
	get := func(key balanceKey) uint256.Int {
		if bal, ok := pending[key]; ok {
			return bal
		}
		return m.balances[key]
	}

	for i, t := range transfers {
		if (t.From != common.Address{}) {
			key := balanceKey{t.From, t.Asset}
			bal := get(key)
			next, err := fixedpoint.Sub(&bal, &t.Amount)
			if err != nil {
				return fmt.Errorf(
					"%w: transfer %d owner=%s asset=%s balance=%s amount=%s",
					ErrInsufficientBalance,
					i,
					t.From.Hex(),
					t.Asset.Hex(),
					bal.Dec(),
					t.Amount.Dec(),
				)
			}
			pending[key] = *next
		}
		if (t.To != common.Address{}) {
			key := balanceKey{t.To, t.Asset}
			bal := get(key)
			next, err := fixedpoint.Add(&bal, &t.Amount)
			if err != nil {
				return fmt.Errorf("transfer %d to %s: %w", i, t.To.Hex(), err)
			}
			pending[key] = *next
		}
	}

	for key, bal := range pending {
		m.set(key, &bal)
	}
	return nil
}

// Holding is one non-zero balance.
type Holding struct {
	Owner  common.Address
	Asset  common.Address
	Amount uint256.Int
}

// Holdings lists every non-zero balance ordered by owner then asset.
func (m *Memory) Holdings() []Holding {
	m.mu.Lock()
	out := make([]Holding, 0, len(m.balances))
	for key, bal := range m.balances {
		out = append(out, Holding{Owner: key.owner, Asset: key.asset, Amount: bal})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner.Hex() < out[j].Owner.Hex()
		}
		return out[i].Asset.Hex() < out[j].Asset.Hex()
	})
	return out
}

func (m *Memory) set(key balanceKey, bal *uint256.Int) {
	if bal.IsZero() {
		delete(m.balances, key)
		return
	}
	m.balances[key] = *bal
}
