package accept

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v3"
	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/worker"
)

func coinbaseBlock(parent primitives.H256, height uint32, recipient primitives.H160, nonce uint32) *chain.Block {
	tx := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(int64(height)),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        params.Subsidy(height),
			ScriptPubKey: script.BuildP2WPKH(recipient),
		}},
	}
	block := &chain.Block{
		Header: chain.BlockHeader{
			Version:            1,
			PreviousHeaderHash: []primitives.H256{parent},
			Time:               nonce + 1,
		},
		Transactions: []chain.PaymentTransaction{tx},
	}
	block.Header.MerkleRootHash = block.ComputeMerkleRoot()
	block.Header.WitnessMerkleRootHash = block.ComputeWitnessMerkleRoot()
	return block
}

// newMaturedChain builds a genesis block paying recipient plus enough
// further blocks for that coinbase to clear params.CoinbaseMaturity,
// inserting and canonizing directly against db (bypassing Acceptor, since
// this is test setup rather than the behavior under test).
func newMaturedChain(t *testing.T, db *store.Store, recipient primitives.H160) *chain.Block {
	t.Helper()
	genesis := coinbaseBlock(primitives.ZeroH256, 0, recipient, 0)
	require.NoError(t, db.InitGenesis(genesis))

	parent := genesis.Header.Hash()
	for h := uint32(1); h <= params.CoinbaseMaturity; h++ {
		var filler primitives.H160
		filler[0] = byte(h)
		block := coinbaseBlock(parent, h, filler, h)
		indexed := chain.NewIndexedBlock(block)
		require.NoError(t, db.Insert(indexed))
		require.NoError(t, db.Canonize(indexed.Hash()))
		parent = indexed.Hash()
	}
	return genesis
}

func TestAcceptTransactionInsertsMaturedSpendIntoPool(t *testing.T) {
	var keyBytes [32]byte
	for i := range keyBytes {
		keyBytes[i] = byte(i + 11)
	}
	key := secp256k1.PrivKeyFromBytes(keyBytes[:])
	hash160 := primitives.Hash160(key.PubKey().SerializeCompressed())

	db := store.New()
	pool := mempool.New(nil)
	workers := worker.NewPool(2)
	defer workers.Stop()
	acceptor := New(db, pool, workers)

	genesis := newMaturedChain(t, db, hash160)
	coinbaseOp := chain.OutPoint{Hash: genesis.Transactions[0].Hash(), Index: 0}

	var recipient primitives.H160
	recipient[0] = 0xaa
	spend := chain.PaymentTransaction{
		Version: 1,
		Inputs:  []chain.TransactionInput{{PreviousOutput: coinbaseOp, Sequence: chain.FinalSequence}},
		Outputs: []chain.TransactionOutput{{Value: params.Subsidy(0) - 1000, ScriptPubKey: script.BuildP2WPKH(recipient)}},
	}
	signed, err := script.SignInput(&spend, 0, params.Subsidy(0), script.BuildP2PKH(hash160), key, script.SigVersionWitnessV0, script.SighashAll)
	require.NoError(t, err)
	spend.Inputs[0].ScriptWitness = signed.Witness

	fut := acceptor.AcceptTransaction(&spend)
	_, err = fut.Wait()
	require.NoError(t, err)

	require.True(t, pool.Contains(spend.Hash()))
}

func TestAcceptTransactionRejectsImmatureCoinbaseSpend(t *testing.T) {
	var keyBytes [32]byte
	for i := range keyBytes {
		keyBytes[i] = byte(i + 21)
	}
	key := secp256k1.PrivKeyFromBytes(keyBytes[:])
	hash160 := primitives.Hash160(key.PubKey().SerializeCompressed())

	db := store.New()
	pool := mempool.New(nil)
	workers := worker.NewPool(2)
	defer workers.Stop()
	acceptor := New(db, pool, workers)

	genesis := coinbaseBlock(primitives.ZeroH256, 0, hash160, 0)
	require.NoError(t, db.InitGenesis(genesis))
	coinbaseOp := chain.OutPoint{Hash: genesis.Transactions[0].Hash(), Index: 0}

	var recipient primitives.H160
	spend := chain.PaymentTransaction{
		Version: 1,
		Inputs:  []chain.TransactionInput{{PreviousOutput: coinbaseOp, Sequence: chain.FinalSequence}},
		Outputs: []chain.TransactionOutput{{Value: 1, ScriptPubKey: script.BuildP2WPKH(recipient)}},
	}
	signed, err := script.SignInput(&spend, 0, params.Subsidy(0), script.BuildP2PKH(hash160), key, script.SigVersionWitnessV0, script.SighashAll)
	require.NoError(t, err)
	spend.Inputs[0].ScriptWitness = signed.Witness

	fut := acceptor.AcceptTransaction(&spend)
	_, err = fut.Wait()
	require.Error(t, err)
	require.False(t, pool.Contains(spend.Hash()))
}

func TestAcceptBlockCanonizesValidExtension(t *testing.T) {
	var recipient primitives.H160
	db := store.New()
	pool := mempool.New(nil)
	workers := worker.NewPool(2)
	defer workers.Stop()
	acceptor := New(db, pool, workers)

	genesis := coinbaseBlock(primitives.ZeroH256, 0, recipient, 0)
	require.NoError(t, db.InitGenesis(genesis))

	var nextRecipient primitives.H160
	nextRecipient[0] = 1
	next := coinbaseBlock(genesis.Header.Hash(), 1, nextRecipient, 1)

	fut := acceptor.AcceptBlock(next)
	_, err := fut.Wait()
	require.NoError(t, err)

	hash, height, err := db.BestBlock()
	require.NoError(t, err)
	require.Equal(t, uint32(1), height)
	require.Equal(t, next.Header.Hash(), hash)
}

func TestAcceptBlockIgnoresAlreadyKnownBlock(t *testing.T) {
	var recipient primitives.H160
	db := store.New()
	pool := mempool.New(nil)
	workers := worker.NewPool(2)
	defer workers.Stop()
	acceptor := New(db, pool, workers)

	genesis := coinbaseBlock(primitives.ZeroH256, 0, recipient, 0)
	require.NoError(t, db.InitGenesis(genesis))

	fut := acceptor.AcceptBlock(genesis)
	_, err := fut.Wait()
	require.NoError(t, err)

	_, height, err := db.BestBlock()
	require.NoError(t, err)
	require.Equal(t, uint32(0), height)
}
