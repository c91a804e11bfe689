package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/worker"
)

type fakeTxAcceptor struct {
	pool *worker.Pool
	err  error
}

func (a *fakeTxAcceptor) AcceptTransaction(tx *chain.PaymentTransaction) *worker.Future[struct{}] {
	return worker.SubmitFuture(a.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.err
	})
}

type fakeTxBroadcaster struct {
	sent []*chain.PaymentTransaction
}

func (b *fakeTxBroadcaster) Broadcast(tx *chain.PaymentTransaction) {
	b.sent = append(b.sent, tx)
}

func TestCreateWalletGeneratesFreshAddress(t *testing.T) {
	db := store.New()
	workers := worker.NewPool(1)
	defer workers.Stop()
	wm := NewWalletManager("mainnet", db, mempool.New(nil), &fakeTxAcceptor{pool: workers}, &fakeTxBroadcaster{})

	addr1, err := wm.CreateWallet()
	require.NoError(t, err)
	require.NotEmpty(t, addr1)

	addr2, err := wm.CreateWallet()
	require.NoError(t, err)
	require.NotEqual(t, addr1, addr2, "CreateWallet should discard the old wallet and generate a fresh key")
}

func TestLoadWalletDerivesDeterministicAddress(t *testing.T) {
	db := store.New()
	workers := worker.NewPool(1)
	defer workers.Stop()
	wm := NewWalletManager("mainnet", db, mempool.New(nil), &fakeTxAcceptor{pool: workers}, &fakeTxBroadcaster{})

	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr1, err := wm.LoadWallet(raw[:])
	require.NoError(t, err)

	addr2, err := wm.LoadWallet(raw[:])
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}

func fundedDB(t *testing.T, recipient primitives.H160, value uint64) *store.Store {
	t.Helper()
	tx := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(0),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{Value: value, ScriptPubKey: script.BuildP2WPKH(recipient)}},
	}
	block := &chain.Block{
		Header:       chain.BlockHeader{Version: 1, PreviousHeaderHash: []primitives.H256{primitives.ZeroH256}, Time: 1},
		Transactions: []chain.PaymentTransaction{tx},
	}
	block.Header.MerkleRootHash = block.ComputeMerkleRoot()
	block.Header.WitnessMerkleRootHash = block.ComputeWitnessMerkleRoot()

	db := store.New()
	require.NoError(t, db.InitGenesis(block))
	return db
}

func TestCalculateBalanceSumsUnspentOutputs(t *testing.T) {
	workers := worker.NewPool(1)
	defer workers.Stop()

	key, err := keys.NewKeyPair("mainnet")
	require.NoError(t, err)
	db := fundedDB(t, key.PubKeyHash160(), 12345)

	wm := NewWalletManager("mainnet", db, mempool.New(nil), &fakeTxAcceptor{pool: workers}, &fakeTxBroadcaster{})
	raw := key.Private.Serialize()
	_, err = wm.LoadWallet(raw)
	require.NoError(t, err)

	balance, err := wm.CalculateBalance()
	require.NoError(t, err)
	require.EqualValues(t, 12345, balance)
}

func TestSendCashFundsSignsSubmitsAndBroadcasts(t *testing.T) {
	workers := worker.NewPool(1)
	defer workers.Stop()

	key, err := keys.NewKeyPair("mainnet")
	require.NoError(t, err)
	db := fundedDB(t, key.PubKeyHash160(), 10000)

	broadcast := &fakeTxBroadcaster{}
	wm := NewWalletManager("mainnet", db, mempool.New(nil), &fakeTxAcceptor{pool: workers}, broadcast)
	_, err = wm.LoadWallet(key.Private.Serialize())
	require.NoError(t, err)

	recipientKey, err := keys.NewKeyPair("mainnet")
	require.NoError(t, err)
	address, err := keys.EncodeAddress(recipientKey.Address())
	require.NoError(t, err)

	tx, err := wm.SendCash(address, 2000)
	require.NoError(t, err)
	require.Len(t, broadcast.sent, 1)
	require.Equal(t, uint64(2000), tx.Outputs[0].Value)
}

func TestSendCashRejectsInvalidAddress(t *testing.T) {
	workers := worker.NewPool(1)
	defer workers.Stop()
	db := store.New()
	wm := NewWalletManager("mainnet", db, mempool.New(nil), &fakeTxAcceptor{pool: workers}, &fakeTxBroadcaster{})

	_, err := wm.SendCash("not-a-valid-address", 100)
	require.Error(t, err)
}
