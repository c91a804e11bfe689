package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/worker"
)

type fakeBlockAcceptor struct {
	pool     *worker.Pool
	err      error
	accepted []*chain.Block
}

func (a *fakeBlockAcceptor) AcceptBlock(block *chain.Block) *worker.Future[struct{}] {
	a.accepted = append(a.accepted, block)
	return worker.SubmitFuture(a.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.err
	})
}

type fakeExecutorBroadcaster struct {
	blocks []*chain.Block
	sent   []string
}

func (b *fakeExecutorBroadcaster) BroadcastBlock(block *chain.Block) {
	b.blocks = append(b.blocks, block)
}

func (b *fakeExecutorBroadcaster) Send(peerID, command string, payload []byte) error {
	b.sent = append(b.sent, peerID+":"+command)
	return nil
}

func newGenesisDB(t *testing.T) *store.Store {
	t.Helper()
	var recipient primitives.H160
	tx := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(0),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{Value: 50, ScriptPubKey: script.BuildP2WPKH(recipient)}},
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

func TestSignBlockAcceptsAndBroadcasts(t *testing.T) {
	db := newGenesisDB(t)
	pool := mempool.New(nil)
	workers := worker.NewPool(1)
	defer workers.Stop()
	acceptor := &fakeBlockAcceptor{pool: workers}
	broadcast := &fakeExecutorBroadcaster{}
	exec := NewExecutor(db, pool, acceptor, broadcast)

	var recipient primitives.H160
	recipient[0] = 9
	block, err := exec.SignBlock(recipient)
	require.NoError(t, err)
	require.Len(t, acceptor.accepted, 1)
	require.Len(t, broadcast.blocks, 1)
	require.Equal(t, block, broadcast.blocks[0])
	require.Equal(t, script.BuildP2WPKH(recipient), block.Transactions[0].Outputs[0].ScriptPubKey)
}

func TestSignBlockPropagatesAcceptorRejection(t *testing.T) {
	db := newGenesisDB(t)
	pool := mempool.New(nil)
	workers := worker.NewPool(1)
	defer workers.Stop()
	acceptor := &fakeBlockAcceptor{pool: workers, err: errors.New("node_test: rejected")}
	broadcast := &fakeExecutorBroadcaster{}
	exec := NewExecutor(db, pool, acceptor, broadcast)

	var recipient primitives.H160
	_, err := exec.SignBlock(recipient)
	require.Error(t, err)
	require.Empty(t, broadcast.blocks)
}

func TestRequestLatestBlocksSendsLocatorToPeer(t *testing.T) {
	db := newGenesisDB(t)
	pool := mempool.New(nil)
	workers := worker.NewPool(1)
	defer workers.Stop()
	acceptor := &fakeBlockAcceptor{pool: workers}
	broadcast := &fakeExecutorBroadcaster{}
	exec := NewExecutor(db, pool, acceptor, broadcast)

	require.NoError(t, exec.RequestLatestBlocks("peer-1"))
	require.Equal(t, []string{"peer-1:getblocks"}, broadcast.sent)
}
