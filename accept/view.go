package accept

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/store"
)

// canonicalView is the subset of *store.Store / *store.ForkView that
// storeOutputView needs; both types satisfy it structurally.
type canonicalView interface {
	UTXO(op chain.OutPoint) (*store.UTXOEntry, bool)
	IsSpent(op chain.OutPoint) bool
	TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error)
}

// storeOutputView adapts a Store or ForkView to verify.OutputView.
type storeOutputView struct {
	base canonicalView
}

func (v *storeOutputView) Output(op chain.OutPoint) (chain.TransactionOutput, bool) {
	out, err := v.base.TransactionOutput(op)
	if err != nil {
		return chain.TransactionOutput{}, false
	}
	return out, true
}

func (v *storeOutputView) IsSpent(op chain.OutPoint) bool {
	return v.base.IsSpent(op)
}

func (v *storeOutputView) OutputMeta(op chain.OutPoint) (height uint32, isCoinbase bool, found bool) {
	entry, ok := v.base.UTXO(op)
	if !ok {
		return 0, false, false
	}
	return entry.Height, entry.IsCoinbase, true
}

// poolOutputView is MemoryPoolTransactionOutputProvider: it layers the
// pool's pending outputs on top of a store view, per spec.md §4.4.
type poolOutputView struct {
	base storeView
	pool *mempool.Pool
}

// storeView is the narrow interface poolOutputView and duplexOutputView
// compose over — either a storeOutputView or another overlay.
type storeView interface {
	Output(op chain.OutPoint) (chain.TransactionOutput, bool)
	IsSpent(op chain.OutPoint) bool
	OutputMeta(op chain.OutPoint) (height uint32, isCoinbase bool, found bool)
}

func (v *poolOutputView) Output(op chain.OutPoint) (chain.TransactionOutput, bool) {
	if out, ok := v.pool.TransactionOutput(op); ok {
		return out, true
	}
	return v.base.Output(op)
}

func (v *poolOutputView) IsSpent(op chain.OutPoint) bool {
	if v.pool.IsSpent(op) {
		return true
	}
	return v.base.IsSpent(op)
}

func (v *poolOutputView) OutputMeta(op chain.OutPoint) (height uint32, isCoinbase bool, found bool) {
	if _, ok := v.pool.Get(op.Hash); ok {
		// Pool transactions are unconfirmed: never treated as an immature
		// coinbase prevout.
		return 0, false, true
	}
	return v.base.OutputMeta(op)
}

// duplexOutputView is DuplexTransactionOutputProvider: within a block
// being accepted, in-block outputs shadow the base view for the same
// outpoint, and outputs from transactions at index >= the index currently
// being validated are invisible, per spec.md §4.5's ordering rules.
type duplexOutputView struct {
	base  storeView
	byTx  map[primitives.H256]*chain.IndexedTransaction
	index map[primitives.H256]int
	upto  int
}

func newDuplexOutputView(base storeView, block []*chain.IndexedTransaction) *duplexOutputView {
	byTx := make(map[primitives.H256]*chain.IndexedTransaction, len(block))
	index := make(map[primitives.H256]int, len(block))
	for i, tx := range block {
		byTx[tx.Hash] = tx
		index[tx.Hash] = i
	}
	return &duplexOutputView{base: base, byTx: byTx, index: index}
}

// setCurrent must be called before validating block[i] so in-block
// visibility reflects "earlier transactions only".
func (v *duplexOutputView) setCurrent(i int) {
	v.upto = i
}

func (v *duplexOutputView) Output(op chain.OutPoint) (chain.TransactionOutput, bool) {
	if tx, ok := v.byTx[op.Hash]; ok {
		if v.index[op.Hash] >= v.upto {
			return chain.TransactionOutput{}, false
		}
		if int(op.Index) >= len(tx.Transaction.Outputs) {
			return chain.TransactionOutput{}, false
		}
		return tx.Transaction.Outputs[op.Index], true
	}
	return v.base.Output(op)
}

func (v *duplexOutputView) IsSpent(op chain.OutPoint) bool {
	if _, ok := v.byTx[op.Hash]; ok {
		return false
	}
	return v.base.IsSpent(op)
}

func (v *duplexOutputView) OutputMeta(op chain.OutPoint) (height uint32, isCoinbase bool, found bool) {
	if _, ok := v.byTx[op.Hash]; ok {
		return 0, false, false
	}
	return v.base.OutputMeta(op)
}
