// Package mempool implements the memory pool of unconfirmed transactions:
// a primary hash-keyed table, an outpoint-based double-spend index, an
// address-based output index, and ordering strategies for block assembly,
// per spec.md §4.4.
package mempool

import (
	"sort"
	"sync"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
)

// DoubleSpendResult reports how a candidate transaction's inputs relate to
// the pool's existing entries.
type DoubleSpendResult int

const (
	// NoDoubleSpend means none of tx's inputs conflict with a pool entry.
	NoDoubleSpend DoubleSpendResult = iota
	// NonFinalDoubleSpendSet means every conflicting pool entry has a
	// non-final input and may be evicted in favor of tx.
	NonFinalDoubleSpendSet
	// DoubleSpend means at least one conflicting pool entry is final and
	// tx must be rejected.
	DoubleSpend
)

// entry is a single pool transaction plus its computed score.
type entry struct {
	tx        chain.IndexedTransaction
	addedTime int64
	fee       uint64
	size      int
}

// score is transaction fee per byte, the basis for ByTransactionScore
// ordering.
func (e *entry) score() float64 {
	if e.size == 0 {
		return 0
	}
	return float64(e.fee) / float64(e.size)
}

// Pool is the process-wide memory pool, guarded for multiple concurrent
// readers / one writer, mirroring Store's concurrency shape.
type Pool struct {
	mu sync.RWMutex

	byHash      map[primitives.H256]*entry
	byPrevout   map[chain.OutPoint]primitives.H256
	addressIdx  map[primitives.H160]map[chain.OutPoint]struct{}
	clock       func() int64
}

// New returns an empty pool. clock lets callers (and tests) control the
// timestamp ByTimestamp ordering uses; a nil clock defaults to a
// monotonically increasing counter.
func New(clock func() int64) *Pool {
	if clock == nil {
		var counter int64
		clock = func() int64 {
			counter++
			return counter
		}
	}
	return &Pool{
		byHash:     make(map[primitives.H256]*entry),
		byPrevout:  make(map[chain.OutPoint]primitives.H256),
		addressIdx: make(map[primitives.H160]map[chain.OutPoint]struct{}),
		clock:      clock,
	}
}

// OutputSource resolves a previous output's value, used to compute a pool
// entry's fee at insertion time.
type OutputSource interface {
	TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error)
}

// CheckDoubleSpend classifies tx's inputs against the pool's existing
// entries without mutating it.
func (p *Pool) CheckDoubleSpend(tx *chain.PaymentTransaction) DoubleSpendResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := NoDoubleSpend
	for _, in := range tx.Inputs {
		conflictHash, ok := p.byPrevout[in.PreviousOutput]
		if !ok {
			continue
		}
		conflict := p.byHash[conflictHash]
		if conflict == nil {
			continue
		}
		if conflictIsFinal(&conflict.tx.Transaction) {
			return DoubleSpend
		}
		result = NonFinalDoubleSpendSet
	}
	return result
}

func conflictIsFinal(tx *chain.PaymentTransaction) bool {
	for i := range tx.Inputs {
		if !tx.Inputs[i].IsFinal() {
			return false
		}
	}
	return true
}

// InsertVerified adds an already-verified transaction to the pool, first
// evicting every entry that spends one of tx's prevouts, final or not; it
// does not consult CheckDoubleSpend.
func (p *Pool) InsertVerified(tx *chain.IndexedTransaction, source OutputSource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, in := range tx.Transaction.Inputs {
		if conflictHash, ok := p.byPrevout[in.PreviousOutput]; ok {
			p.removeByHashLocked(conflictHash)
		}
	}

	var fee uint64
	var inputSum uint64
	haveAllInputs := true
	for _, in := range tx.Transaction.Inputs {
		out, err := source.TransactionOutput(in.PreviousOutput)
		if err != nil {
			haveAllInputs = false
			continue
		}
		inputSum += out.Value
	}
	outputSum := tx.Transaction.TotalSpends()
	if haveAllInputs && inputSum >= outputSum {
		fee = inputSum - outputSum
	}

	e := &entry{
		tx:        *tx,
		addedTime: p.clock(),
		fee:       fee,
		size:      tx.Transaction.SerializedSize(0),
	}
	p.byHash[tx.Hash] = e

	for _, in := range tx.Transaction.Inputs {
		p.byPrevout[in.PreviousOutput] = tx.Hash
	}
	for i, out := range tx.Transaction.Outputs {
		hash, err := script.ExtractDestination(out.ScriptPubKey)
		if err != nil {
			continue
		}
		op := chain.OutPoint{Hash: tx.Hash, Index: uint32(i)}
		if p.addressIdx[hash] == nil {
			p.addressIdx[hash] = make(map[chain.OutPoint]struct{})
		}
		p.addressIdx[hash][op] = struct{}{}
	}

	log.Debugf("pool: inserted %s (fee %d, size %d)", tx.Hash, fee, e.size)
}

// RemoveByHash removes the entry keyed by hash, if present.
func (p *Pool) RemoveByHash(hash primitives.H256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeByHashLocked(hash)
}

func (p *Pool) removeByHashLocked(hash primitives.H256) {
	e, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	for _, in := range e.tx.Transaction.Inputs {
		if p.byPrevout[in.PreviousOutput] == hash {
			delete(p.byPrevout, in.PreviousOutput)
		}
	}
	for i, out := range e.tx.Transaction.Outputs {
		addrHash, err := script.ExtractDestination(out.ScriptPubKey)
		if err != nil {
			continue
		}
		op := chain.OutPoint{Hash: hash, Index: uint32(i)}
		delete(p.addressIdx[addrHash], op)
		if len(p.addressIdx[addrHash]) == 0 {
			delete(p.addressIdx, addrHash)
		}
	}
}

// RemoveByPrevout evicts whatever pool entry spends op, if any.
func (p *Pool) RemoveByPrevout(op chain.OutPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if hash, ok := p.byPrevout[op]; ok {
		p.removeByHashLocked(hash)
	}
}

// Contains reports whether hash is in the pool.
func (p *Pool) Contains(hash primitives.H256) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byHash[hash]
	return ok
}

// Get returns the pool's copy of the transaction keyed by hash.
func (p *Pool) Get(hash primitives.H256) (*chain.IndexedTransaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byHash[hash]
	if !ok {
		return nil, false
	}
	tx := e.tx
	return &tx, true
}

// IsSpent reports whether op is consumed by some pool transaction.
func (p *Pool) IsSpent(op chain.OutPoint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byPrevout[op]
	return ok
}

// TransactionOutput returns the output at (op.Hash, op.Index) from a pool
// transaction, for layering on top of the store's view.
func (p *Pool) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byHash[op.Hash]
	if !ok || int(op.Index) >= len(e.tx.Transaction.Outputs) {
		return chain.TransactionOutput{}, false
	}
	return e.tx.Transaction.Outputs[op.Index], true
}

// TransactionWithOutputAddress returns every pool outpoint paying addr.
func (p *Pool) TransactionWithOutputAddress(addr primitives.H160) []chain.OutPoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.addressIdx[addr]
	out := make([]chain.OutPoint, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	return out
}

// Strategy selects the ordering RemoveNWithStrategy and block assembly use.
type Strategy int

const (
	ByTimestamp Strategy = iota
	ByTransactionScore
	ByTransactionPackage
)

// RemoveNWithStrategy removes and returns up to n transactions ordered by
// strategy, ties broken by hash.
func (p *Pool) RemoveNWithStrategy(n int, strategy Strategy) []chain.IndexedTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	ordered := p.orderedLocked(strategy)
	if n > len(ordered) {
		n = len(ordered)
	}
	out := make([]chain.IndexedTransaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ordered[i].tx)
		p.removeByHashLocked(ordered[i].tx.Hash)
	}
	return out
}

// Snapshot returns every pool transaction ordered by strategy, without
// removing them — used by block assembly, which decides what to keep after
// seeing the result.
func (p *Pool) Snapshot(strategy Strategy) []chain.IndexedTransaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ordered := p.orderedLocked(strategy)
	out := make([]chain.IndexedTransaction, len(ordered))
	for i, e := range ordered {
		out[i] = e.tx
	}
	return out
}

func (p *Pool) orderedLocked(strategy Strategy) []*entry {
	entries := make([]*entry, 0, len(p.byHash))
	for _, e := range p.byHash {
		entries = append(entries, e)
	}

	packageScore := func(e *entry) float64 {
		total := e.fee
		totalSize := e.size
		seen := make(map[primitives.H256]bool)
		for _, in := range e.tx.Transaction.Inputs {
			parentHash := in.PreviousOutput.Hash
			if seen[parentHash] {
				continue
			}
			if parent, ok := p.byHash[parentHash]; ok {
				seen[parentHash] = true
				total += parent.fee
				totalSize += parent.size
			}
		}
		if totalSize == 0 {
			return 0
		}
		return float64(total) / float64(totalSize)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch strategy {
		case ByTimestamp:
			if a.addedTime != b.addedTime {
				return a.addedTime < b.addedTime
			}
		case ByTransactionScore:
			if a.score() != b.score() {
				return a.score() > b.score()
			}
		case ByTransactionPackage:
			sa, sb := packageScore(a), packageScore(b)
			if sa != sb {
				return sa > sb
			}
		}
		return hashLess(a.tx.Hash, b.tx.Hash)
	})
	return entries
}

func hashLess(a, b primitives.H256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
