package net

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/wire"
)

// maxGetBlocksHashes bounds a single getblocks reply, per spec.md §4.7.
const maxGetBlocksHashes = 500

// maxCommonBlockWalk bounds how far findCommon walks a non-canonical
// locator hash's parent chain before giving up.
const maxCommonBlockWalk = 2000

// Responder answers getblocks/getdata inventory requests against the block
// store, per spec.md §4.7.
type Responder struct {
	store *store.Store
}

// NewResponder returns a Responder reading from db.
func NewResponder(db *store.Store) *Responder {
	return &Responder{store: db}
}

// GetBlocks locates the best common block by scanning locator in order
// (falling back to walking a side chain back to a canonical ancestor) and
// returns up to maxGetBlocksHashes canonical hashes above it, stopping at
// hashStop.
func (r *Responder) GetBlocks(locator []primitives.H256, hashStop primitives.H256) ([]primitives.H256, error) {
	height, ok := r.findCommon(locator)
	if !ok {
		return nil, ErrNoCommonBlock
	}

	hashes := make([]primitives.H256, 0, maxGetBlocksHashes)
	for h := height + 1; len(hashes) < maxGetBlocksHashes; h++ {
		hash, err := r.store.BlockHash(h)
		if err != nil {
			break
		}
		hashes = append(hashes, hash)
		if hash == hashStop {
			break
		}
	}
	return hashes, nil
}

// findCommon returns the canonical height of the first locator hash that is
// canonical, or, for a hash this node knows but which isn't canonical,
// the canonical height of the nearest ancestor reached by walking its
// parent-hash chain.
func (r *Responder) findCommon(locator []primitives.H256) (uint32, bool) {
	for _, hash := range locator {
		cur := hash
		for i := 0; i < maxCommonBlockWalk; i++ {
			if height, ok := r.store.BlockNumber(cur); ok {
				return height, true
			}
			header, err := r.store.BlockHeader(cur)
			if err != nil {
				break
			}
			if len(header.PreviousHeaderHash) == 0 {
				break
			}
			cur = header.ParentHash()
		}
	}
	return 0, false
}

// BlockMessage pairs a resolved block with the hash it was requested by.
type BlockMessage struct {
	Hash  primitives.H256
	Block *chain.Block
}

// GetData resolves every MessageBlock inventory item present in the store,
// ignoring filtered/compact/witness variants and logging unknown types, per
// spec.md §4.7.
func (r *Responder) GetData(items []wire.Inventory) []BlockMessage {
	var out []BlockMessage
	for _, item := range items {
		switch item.Type {
		case wire.InvBlock:
			hash, err := primitives.H256FromBytes(item.Hash[:])
			if err != nil {
				continue
			}
			block, err := r.store.Block(hash)
			if err != nil {
				continue
			}
			out = append(out, BlockMessage{Hash: hash, Block: block})
		case wire.InvFilteredBlock, wire.InvCompactBlock, wire.InvWitnessBlock, wire.InvWitnessFilteredBlock:
			// ignored per spec.md §4.7.
		default:
			log.Debugf("getdata: unknown inventory type %d", item.Type)
		}
	}
	return out
}
