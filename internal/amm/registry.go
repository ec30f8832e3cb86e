package amm

import (
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the arena of pools, addressed by pool id.
type Registry struct {
	mu    sync.RWMutex
	pools map[common.Address]*Pool
}

func NewRegistry() *Registry {
	return &Registry{pools: make(map[common.Address]*Pool)}
}

// Create returns the pool for the pair, adding an uninitialized one if the
// pair is new.
func (r *Registry) Create(tokenA, tokenB common.Address) (*Pool, error) {
	id, err := PoolAddress(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	pool, ok := r.pools[id]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if pool, ok := r.pools[id]; ok {
		return pool, nil
	}
	pool, err = NewPool(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	r.pools[id] = pool
	return pool, nil
}

// Get returns the pool with the given id.
func (r *Registry) Get(id common.Address) (*Pool, error) {
	r.mu.RLock()
	pool, ok := r.pools[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// Lookup finds the pool for a pair without creating it.
func (r *Registry) Lookup(tokenA, tokenB common.Address) (*Pool, error) {
	id, err := PoolAddress(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Pools returns all pools ordered by id.
func (r *Registry) Pools() []*Pool {
	r.mu.RLock()
	out := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		out = append(out, pool)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].id.Hex(), out[j].id.Hex()) < 0
	})
	return out
}
