package net

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/wire"
)

func coinbaseBlock(parent primitives.H256, height uint32, nonce uint32) *chain.Block {
	var recipient primitives.H160
	recipient[0] = byte(height)
	tx := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(int64(height)),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{Value: 50, ScriptPubKey: script.BuildP2WPKH(recipient)}},
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

func newChain(t *testing.T, length uint32) (*store.Store, []*chain.Block) {
	t.Helper()
	db := store.New()
	genesis := coinbaseBlock(primitives.ZeroH256, 0, 0)
	require.NoError(t, db.InitGenesis(genesis))

	blocks := []*chain.Block{genesis}
	parent := genesis.Header.Hash()
	for h := uint32(1); h <= length; h++ {
		block := coinbaseBlock(parent, h, h)
		indexed := chain.NewIndexedBlock(block)
		require.NoError(t, db.Insert(indexed))
		require.NoError(t, db.Canonize(indexed.Hash()))
		parent = indexed.Hash()
		blocks = append(blocks, block)
	}
	return db, blocks
}

func TestGetBlocksReturnsHashesAboveLocator(t *testing.T) {
	db, blocks := newChain(t, 5)
	r := NewResponder(db)

	locator := []primitives.H256{blocks[2].Header.Hash()}
	hashes, err := r.GetBlocks(locator, primitives.ZeroH256)
	require.NoError(t, err)
	require.Equal(t, []primitives.H256{
		blocks[3].Header.Hash(),
		blocks[4].Header.Hash(),
		blocks[5].Header.Hash(),
	}, hashes)
}

func TestGetBlocksStopsAtHashStop(t *testing.T) {
	db, blocks := newChain(t, 5)
	r := NewResponder(db)

	locator := []primitives.H256{blocks[0].Header.Hash()}
	hashes, err := r.GetBlocks(locator, blocks[2].Header.Hash())
	require.NoError(t, err)
	require.Equal(t, []primitives.H256{
		blocks[1].Header.Hash(),
		blocks[2].Header.Hash(),
	}, hashes)
}

func TestGetBlocksRejectsUnknownLocator(t *testing.T) {
	db, _ := newChain(t, 2)
	r := NewResponder(db)

	var unknown primitives.H256
	unknown[0] = 0xff
	_, err := r.GetBlocks([]primitives.H256{unknown}, primitives.ZeroH256)
	require.ErrorIs(t, err, ErrNoCommonBlock)
}

func TestGetDataResolvesKnownBlocksAndIgnoresWitnessVariant(t *testing.T) {
	db, blocks := newChain(t, 1)
	r := NewResponder(db)

	var unknownHash [32]byte
	unknownHash[0] = 0xaa
	items := []wire.Inventory{
		{Type: wire.InvBlock, Hash: [32]byte(blocks[1].Header.Hash())},
		{Type: wire.InvWitnessBlock, Hash: [32]byte(blocks[0].Header.Hash())},
		{Type: wire.InvBlock, Hash: unknownHash},
	}
	msgs := r.GetData(items)
	require.Len(t, msgs, 1)
	require.Equal(t, blocks[1].Header.Hash(), msgs[0].Hash)
}
