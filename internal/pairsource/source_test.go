package pairsource

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/chain"
	"liquidityCore/internal/ledger"
)

var (
	token0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	pair   = common.HexToAddress("0x0000000000000000000000000000000000000abc")
)

type fakeEth struct {
	blockNumber uint64
	// storage[address][positionHash] = 32-byte value
	storage   map[common.Address]map[common.Hash][]byte
	lastBlock string
}

func (f *fakeEth) BlockNumber(context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.blockNumber), nil
}

func (f *fakeEth) GetStorageAt(_ context.Context, addr common.Address, position common.Hash, block gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	f.lastBlock = block.String()
	if m, ok := f.storage[addr]; ok {
		if v, ok := m[position]; ok {
			return hexutil.Bytes(v), nil
		}
	}
	return hexutil.Bytes(make([]byte, 32)), nil
}

func newTestClient(t *testing.T, fe *fakeEth) *chain.Client {
	t.Helper()
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", fe))
	client := chain.NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(client.Close)
	return client
}

func word(v *big.Int) []byte {
	out := make([]byte, 32)
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

func addressWord(addr common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], addr.Bytes())
	return out
}

func packReserves(r0, r1 uint64, ts uint32) []byte {
	v := new(big.Int).SetUint64(uint64(ts))
	v.Lsh(v, 112)
	v.Or(v, new(big.Int).SetUint64(r1))
	v.Lsh(v, 112)
	v.Or(v, new(big.Int).SetUint64(r0))
	return word(v)
}

func slot(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

func pairStorage(r0, r1 uint64) map[common.Address]map[common.Hash][]byte {
	return map[common.Address]map[common.Hash][]byte{
		pair: {
			slot(6): addressWord(token0),
			slot(7): addressWord(token1),
			slot(8): packReserves(r0, r1, 1700000000),
		},
	}
}

func TestParseReserves(t *testing.T) {
	r0, r1 := ParseReserves(packReserves(1_000_000, 2_000_000, 0xffffffff))
	require.Equal(t, uint64(1_000_000), r0.Uint64())
	require.Equal(t, uint64(2_000_000), r1.Uint64())

	max112 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))
	v := new(big.Int).Lsh(max112, 112)
	v.Or(v, max112)
	r0, r1 = ParseReserves(word(v))
	require.Equal(t, max112, r0.ToBig())
	require.Equal(t, max112, r1.ToBig())
}

func TestReservesAtLatestBlock(t *testing.T) {
	fe := &fakeEth{blockNumber: 123, storage: pairStorage(1_000_000, 2_000_000)}
	src := New(newTestClient(t, fe), zaptest.NewLogger(t))

	got, err := src.Reserves(context.Background(), pair, 0)
	require.NoError(t, err)
	require.Equal(t, token0.Hex(), got.Token0)
	require.Equal(t, token1.Hex(), got.Token1)
	require.Equal(t, "1000000", got.Reserve0)
	require.Equal(t, "2000000", got.Reserve1)
	require.Equal(t, uint64(123), got.BlockNumber)
	require.Equal(t, "0x7b", fe.lastBlock)
}

func TestReservesRejectsNonPair(t *testing.T) {
	fe := &fakeEth{blockNumber: 1}
	src := New(newTestClient(t, fe), nil)

	_, err := src.Reserves(context.Background(), pair, 0)
	require.ErrorIs(t, err, ErrNotAPair)
}

func TestReservesRejectsEmptyPair(t *testing.T) {
	fe := &fakeEth{blockNumber: 1, storage: pairStorage(0, 5)}
	src := New(newTestClient(t, fe), nil)

	_, err := src.Reserves(context.Background(), pair, 7)
	require.ErrorIs(t, err, ErrEmptyReserves)
}

func TestMirrorMatchesV2Quote(t *testing.T) {
	fe := &fakeEth{blockNumber: 1, storage: pairStorage(1_000_000, 2_000_000)}
	src := New(newTestClient(t, fe), nil)
	ctx := context.Background()

	reserves, err := src.Reserves(ctx, pair, 0)
	require.NoError(t, err)

	book := ledger.NewMemory()
	engine := amm.NewEngine(amm.NewRegistry(), book)
	provider := common.HexToAddress("0x0000000000000000000000000000000000000001")
	pool, err := Mirror(ctx, engine, book, provider, reserves, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), pool.ReserveA().Uint64())
	require.Equal(t, uint64(2_000_000), pool.ReserveB().Uint64())
	require.True(t, book.Balance(provider, token0).IsZero())

	// 1000 in at 0.3%: fee 3, net 997, out = 2e6*997/1000997.
	q, err := engine.Quote(pool.ID(), token0, uint256.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, uint64(1992), q.AmountOut.Uint64())
}
