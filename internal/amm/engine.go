package amm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityCore/internal/metrics"
	"liquidityCore/internal/model"
)

// Operation names used for logging and metrics.
const (
	OpInitialize   = "initialize"
	OpAdd          = "add_liquidity"
	OpRemove       = "remove_liquidity"
	OpSwap         = "swap"
	OpSwapExactOut = "swap_exact_out"
)

// EventSink receives committed events in commit order per pool. Emit runs
// while the pool lock is held, after the ledger has applied the transfers;
// nothing after that point can fail. Emit must not call back into the pool.
type EventSink interface {
	Emit(event model.Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(event model.Event)

func (f EventSinkFunc) Emit(event model.Event) { f(event) }

// Engine couples the pool operations with the ledger port. A transition is
// committed only after the ledger has applied its transfers, and the ledger
// is only called once the transition has been validated.
type Engine struct {
	registry *Registry
	ledger   Ledger
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sink     EventSink
	now      func() time.Time
	seq      atomic.Uint64
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithEventSink(sink EventSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(registry *Registry, ledger Ledger, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		ledger:   ledger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

// Initialize creates (if needed) and bootstraps the pool for a pair, pulling
// the initial reserves from provider and minting the initial liquidity to it.
// Amounts follow the argument order of the tokens.
func (e *Engine) Initialize(ctx context.Context, provider, tokenA, tokenB common.Address, amountA, amountB *uint256.Int, feeBasisPoints uint64) (*Pool, State, error) {
	pool, err := e.registry.Create(tokenA, tokenB)
	if err != nil {
		e.finish(OpInitialize, common.Address{}, err)
		return nil, State{}, err
	}
	if tokenA != pool.TokenA() {
		amountA, amountB = amountB, amountA
	}

	state, err := initialize(pool, amountA, amountB, feeBasisPoints, func(next State) error {
		transfers := []Transfer{
			{Asset: pool.tokenA, From: provider, To: pool.id, Amount: next.ReserveA},
			{Asset: pool.tokenB, From: provider, To: pool.id, Amount: next.ReserveB},
			{Asset: pool.liquidityToken, To: provider, Amount: next.TotalLiquidity},
		}
		if err := e.settle(ctx, provider, transfers); err != nil {
			return err
		}
		e.emit(e.newEvent(model.EventInitialize, pool, provider, next, model.InitializeEventData{
			AmountA:   next.ReserveA.Dec(),
			AmountB:   next.ReserveB.Dec(),
			Liquidity: next.TotalLiquidity.Dec(),
		}))
		return nil
	})
	e.finish(OpInitialize, pool.id, err)
	if err != nil {
		return nil, State{}, err
	}
	return pool, state, nil
}

// AddLiquidity deposits into the pool. Amounts are in the pool's asset
// order (TokenA, TokenB).
func (e *Engine) AddLiquidity(ctx context.Context, provider, poolID common.Address, amountA, amountB *uint256.Int) (LiquidityResult, error) {
	pool, err := e.registry.Get(poolID)
	if err != nil {
		e.finish(OpAdd, poolID, err)
		return LiquidityResult{}, err
	}

	res, err := addLiquidity(pool, amountA, amountB, func(res LiquidityResult, next State) error {
		transfers := []Transfer{
			{Asset: pool.tokenA, From: provider, To: pool.id, Amount: res.ActualA},
			{Asset: pool.tokenB, From: provider, To: pool.id, Amount: res.ActualB},
			{Asset: pool.liquidityToken, To: provider, Amount: res.Minted},
		}
		if err := e.settle(ctx, provider, transfers); err != nil {
			return err
		}
		e.emit(e.newEvent(model.EventMint, pool, provider, next, model.MintEventData{
			AmountA:   res.ActualA.Dec(),
			AmountB:   res.ActualB.Dec(),
			Liquidity: res.Minted.Dec(),
		}))
		return nil
	})
	e.finish(OpAdd, poolID, err)
	if err != nil {
		return LiquidityResult{}, err
	}
	return res, nil
}

// RemoveLiquidity burns provider's liquidity tokens and pays out both assets.
func (e *Engine) RemoveLiquidity(ctx context.Context, provider, poolID common.Address, liquidity *uint256.Int) (WithdrawResult, error) {
	pool, err := e.registry.Get(poolID)
	if err != nil {
		e.finish(OpRemove, poolID, err)
		return WithdrawResult{}, err
	}

	res, err := removeLiquidity(pool, liquidity, func(res WithdrawResult, next State) error {
		transfers := []Transfer{
			{Asset: pool.liquidityToken, From: provider, Amount: res.Burned},
			{Asset: pool.tokenA, From: pool.id, To: provider, Amount: res.AmountA},
			{Asset: pool.tokenB, From: pool.id, To: provider, Amount: res.AmountB},
		}
		if err := e.settle(ctx, provider, transfers); err != nil {
			return err
		}
		e.emit(e.newEvent(model.EventBurn, pool, provider, next, model.BurnEventData{
			AmountA:   res.AmountA.Dec(),
			AmountB:   res.AmountB.Dec(),
			Liquidity: res.Burned.Dec(),
		}))
		return nil
	})
	e.finish(OpRemove, poolID, err)
	if err != nil {
		return WithdrawResult{}, err
	}
	return res, nil
}

// Quote prices an exact-input trade without touching the ledger.
func (e *Engine) Quote(poolID, tokenIn common.Address, amountIn *uint256.Int) (SwapQuote, error) {
	pool, inputIsAssetA, err := e.resolve(poolID, tokenIn)
	if err != nil {
		return SwapQuote{}, err
	}
	return QuoteExactInput(pool, inputIsAssetA, amountIn)
}

// QuoteExactOutput prices an exact-output trade without touching the ledger.
func (e *Engine) QuoteExactOutput(poolID, tokenIn common.Address, amountOut *uint256.Int) (SwapQuote, error) {
	pool, inputIsAssetA, err := e.resolve(poolID, tokenIn)
	if err != nil {
		return SwapQuote{}, err
	}
	return QuoteExactOutput(pool, inputIsAssetA, amountOut)
}

// Swap sells amountIn of tokenIn, requiring at least minAmountOut back.
func (e *Engine) Swap(ctx context.Context, trader, poolID, tokenIn common.Address, amountIn, minAmountOut *uint256.Int) (SwapQuote, error) {
	pool, inputIsAssetA, err := e.resolve(poolID, tokenIn)
	if err != nil {
		e.finish(OpSwap, poolID, err)
		return SwapQuote{}, err
	}

	q, err := executeSwap(pool, inputIsAssetA, amountIn, minAmountOut, e.swapSettlement(ctx, pool, trader))
	e.finish(OpSwap, poolID, err)
	if err != nil {
		return SwapQuote{}, err
	}
	return q, nil
}

// SwapExactOutput buys exactly amountOut, paying at most maxAmountIn of
// tokenIn.
func (e *Engine) SwapExactOutput(ctx context.Context, trader, poolID, tokenIn common.Address, amountOut, maxAmountIn *uint256.Int) (SwapQuote, error) {
	pool, inputIsAssetA, err := e.resolve(poolID, tokenIn)
	if err != nil {
		e.finish(OpSwapExactOut, poolID, err)
		return SwapQuote{}, err
	}

	q, err := executeSwapExactOutput(pool, inputIsAssetA, amountOut, maxAmountIn, e.swapSettlement(ctx, pool, trader))
	e.finish(OpSwapExactOut, poolID, err)
	if err != nil {
		return SwapQuote{}, err
	}
	return q, nil
}

func (e *Engine) swapSettlement(ctx context.Context, pool *Pool, trader common.Address) func(SwapQuote, State) error {
	return func(q SwapQuote, next State) error {
		tokenIn, tokenOut := pool.tokenB, pool.tokenA
		if q.InputIsAssetA {
			tokenIn, tokenOut = pool.tokenA, pool.tokenB
		}
		transfers := []Transfer{
			{Asset: tokenIn, From: trader, To: pool.id, Amount: q.AmountIn},
			{Asset: tokenOut, From: pool.id, To: trader, Amount: q.AmountOut},
		}
		if err := e.settle(ctx, trader, transfers); err != nil {
			return err
		}
		e.emit(e.newEvent(model.EventSwap, pool, trader, next, model.SwapEventData{
			TokenIn:        tokenIn.Hex(),
			TokenOut:       tokenOut.Hex(),
			AmountIn:       q.AmountIn.Dec(),
			AmountOut:      q.AmountOut.Dec(),
			FeeAmount:      q.FeeAmount.Dec(),
			PriceImpactBps: q.PriceImpactBps,
		}))
		return nil
	}
}

func (e *Engine) resolve(poolID, tokenIn common.Address) (*Pool, bool, error) {
	pool, err := e.registry.Get(poolID)
	if err != nil {
		return nil, false, err
	}
	inputIsAssetA, err := pool.InputIsAssetA(tokenIn)
	if err != nil {
		return nil, false, err
	}
	return pool, inputIsAssetA, nil
}

// settle authorizes every debit against account and applies the batch.
// Zero-amount transfers are dropped.
func (e *Engine) settle(ctx context.Context, account common.Address, transfers []Transfer) error {
	if e.ledger == nil {
		return nil
	}
	batch := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount.IsZero() {
			continue
		}
		if t.From == account {
			if err := e.ledger.Authorize(ctx, account, t.Asset, &t.Amount); err != nil {
				return fmt.Errorf("authorize %s: %w", t.Asset.Hex(), err)
			}
		}
		batch = append(batch, t)
	}
	if err := e.ledger.Apply(ctx, batch); err != nil {
		return fmt.Errorf("apply transfers: %w", err)
	}
	return nil
}

func (e *Engine) newEvent(kind string, pool *Pool, account common.Address, next State, data interface{}) model.Event {
	return model.Event{
		Seq:       e.seq.Add(1),
		Kind:      kind,
		Pool:      pool.id.Hex(),
		Account:   account.Hex(),
		Timestamp: uint64(e.now().Unix()),
		Data:      data,
		Reserves: model.PoolReserves{
			TokenA:         pool.tokenA.Hex(),
			TokenB:         pool.tokenB.Hex(),
			LiquidityToken: pool.liquidityToken.Hex(),
			ReserveA:       next.ReserveA.Dec(),
			ReserveB:       next.ReserveB.Dec(),
			TotalLiquidity: next.TotalLiquidity.Dec(),
			FeeBps:         next.FeeBasisPoints,
		},
	}
}

func (e *Engine) emit(event model.Event) {
	e.metrics.Event()
	if e.sink != nil {
		e.sink.Emit(event)
	}
}

func (e *Engine) finish(op string, pool common.Address, err error) {
	switch {
	case err == nil:
		e.metrics.Operation(op, metrics.ResultCommitted)
		e.logger.Debug("operation committed", zap.String("op", op), zap.Stringer("pool", pool))
	case IsInternal(err):
		e.metrics.Operation(op, metrics.ResultInternal)
		e.logger.Error("invariant violation", zap.String("op", op), zap.Stringer("pool", pool), zap.Error(err))
	default:
		e.metrics.Operation(op, metrics.ResultRejected)
		e.logger.Debug("operation rejected", zap.String("op", op), zap.Stringer("pool", pool), zap.Error(err))
	}
}

// LastSeq is the sequence number of the most recent event.
func (e *Engine) LastSeq() uint64 { return e.seq.Load() }
