package store

import (
	"fmt"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
)

// ForkView is a read-only overlay over Store representing "what the chain
// would look like" if origin's side chain were re-canonized on top of its
// common ancestor. It never mutates the underlying Store; Commit applies
// the same sequence of Decanonize/Canonize calls against the real store
// atomically (from the caller's perspective — spec.md §5: "either both
// succeed or neither observable effect persists").
type ForkView struct {
	base   *Store
	origin SideChainOrigin

	// overlay is a scratch Store pre-loaded with every block on the
	// origin's replay path; queries run against it once it has replayed
	// the side chain on top of a snapshot of base's canonical state.
	overlay *Store
}

// Fork materializes a ForkView for origin. The blocks named by
// origin.BlockHashes must already be present in the base store via Insert.
func (s *Store) Fork(origin SideChainOrigin) (*ForkView, error) {
	s.mu.RLock()
	if origin.AncestorHeight > s.bestHeight {
		s.mu.RUnlock()
		return nil, fmt.Errorf("store: fork ancestor height %d exceeds best height %d",
			origin.AncestorHeight, s.bestHeight)
	}
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	overlay := snapshot
	for h := overlay.bestHeight; h > origin.AncestorHeight; h-- {
		if err := overlay.Decanonize(); err != nil {
			return nil, err
		}
		if h == 0 {
			break
		}
	}

	for _, hash := range origin.BlockHashes {
		if _, ok := overlay.blocks[hash]; !ok {
			return nil, ErrUnknownParent
		}
		if err := overlay.Canonize(hash); err != nil {
			return nil, err
		}
	}

	return &ForkView{base: s, origin: origin, overlay: overlay}, nil
}

// snapshotLocked returns a deep-enough copy of s for ForkView to mutate
// independently: block records are shared (immutable once inserted) but
// every index the overlay needs to rewrite is copied.
func (s *Store) snapshotLocked() *Store {
	cp := New()
	for h, rec := range s.blocks {
		copied := *rec
		cp.blocks[h] = &copied
	}
	for h, hash := range s.heights {
		cp.heights[h] = hash
	}
	for h, tx := range s.transactions {
		cp.transactions[h] = tx
	}
	for h, m := range s.txMeta {
		copied := *m
		cp.txMeta[h] = &copied
	}
	for h, b := range s.txBlock {
		cp.txBlock[h] = b
	}
	for op, e := range s.utxo {
		copied := *e
		cp.utxo[op] = &copied
	}
	for addr, ops := range s.addressIndex {
		dst := make(map[chain.OutPoint]struct{}, len(ops))
		for op := range ops {
			dst[op] = struct{}{}
		}
		cp.addressIndex[addr] = dst
	}
	cp.bestHash = s.bestHash
	cp.bestHeight = s.bestHeight
	cp.hasBest = s.hasBest
	// history is copied so Decanonize on the overlay can unwind canonical
	// blocks down to the fork's ancestor; Decanonize only reads a record's
	// fields, so the records themselves can be shared.
	cp.history = append([]canonRecord(nil), s.history...)
	return cp
}

// BestBlock, UTXO, IsSpent, TransactionOutput, Transaction, and
// TransactionMeta mirror Store's query surface against the forked view.

func (f *ForkView) BestBlock() (primitives.H256, uint32, error) {
	return f.overlay.BestBlock()
}

func (f *ForkView) UTXO(op chain.OutPoint) (*UTXOEntry, bool) {
	return f.overlay.UTXO(op)
}

func (f *ForkView) IsSpent(op chain.OutPoint) bool {
	return f.overlay.IsSpent(op)
}

func (f *ForkView) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error) {
	return f.overlay.TransactionOutput(op)
}

func (f *ForkView) Transaction(hash primitives.H256) (*chain.PaymentTransaction, bool) {
	return f.overlay.Transaction(hash)
}

func (f *ForkView) TransactionMeta(hash primitives.H256) (bool, uint32, bool) {
	return f.overlay.TransactionMeta(hash)
}

// Commit replays the same Decanonize/Canonize sequence against the real
// base store, making the fork's view the new canonical chain.
func (f *ForkView) Commit() error {
	f.base.mu.Lock()
	baseHeight := f.base.bestHeight
	baseHasBest := f.base.hasBest
	f.base.mu.Unlock()

	if baseHasBest {
		for h := baseHeight; h > f.origin.AncestorHeight; h-- {
			if err := f.base.Decanonize(); err != nil {
				return err
			}
			if h == 0 {
				break
			}
		}
	}

	for _, hash := range f.origin.BlockHashes {
		if err := f.base.Canonize(hash); err != nil {
			return err
		}
	}
	return nil
}
