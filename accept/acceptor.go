// Package accept implements the acceptance pipeline that sits between the
// network/mempool ingress paths and the store: pre-verification via
// verify.Check, contextual acceptance via verify's individual checks and
// TransactionAcceptor, and the store/pool mutations that follow a
// successful check, per spec.md §4.5/§4.6. Both AcceptTransaction and
// AcceptBlock are offloaded to a worker.Pool so callers never block the
// ingress goroutine.
package accept

import (
	"context"
	"sort"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/verify"
	"github.com/pandoraboxchain/rustheus/worker"
)

// Acceptor wires store, pool and a worker pool together into the two
// accept operations spec.md §4.6 names: AcceptTransaction and AcceptBlock.
type Acceptor struct {
	store   *store.Store
	pool    *mempool.Pool
	workers *worker.Pool
}

// New returns an Acceptor over store/pool, offloading work to workers.
func New(db *store.Store, pool *mempool.Pool, workers *worker.Pool) *Acceptor {
	return &Acceptor{store: db, pool: pool, workers: workers}
}

// AcceptTransaction submits tx for pre-verification, contextual acceptance
// against the store+pool overlay, and pool insertion, returning a future for
// the result.
func (a *Acceptor) AcceptTransaction(tx *chain.PaymentTransaction) *worker.Future[struct{}] {
	return worker.SubmitFuture(a.workers, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.acceptTransaction(tx)
	})
}

func (a *Acceptor) acceptTransaction(tx *chain.PaymentTransaction) error {
	indexed := chain.NewIndexedTransaction(*tx)
	if a.pool.Contains(indexed.Hash) {
		return nil
	}

	if err := verify.CheckTransaction(tx); err != nil {
		return err
	}

	_, height, err := a.store.BestBlock()
	if err != nil {
		height = 0
	}

	view := &poolOutputView{base: &storeOutputView{base: a.store}, pool: a.pool}
	if _, err := verify.TransactionAcceptor(indexed, view, height); err != nil {
		return err
	}

	for i := range tx.Inputs {
		a.pool.RemoveByPrevout(tx.Inputs[i].PreviousOutput)
	}
	a.pool.InsertVerified(indexed, a.store)
	return nil
}

// AcceptBlock submits block for pre-verification, origin classification,
// contextual acceptance, and store canonization, returning a future for the
// result.
func (a *Acceptor) AcceptBlock(block *chain.Block) *worker.Future[struct{}] {
	return worker.SubmitFuture(a.workers, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.acceptBlock(block)
	})
}

func (a *Acceptor) acceptBlock(block *chain.Block) error {
	if err := verify.Check(block); err != nil {
		return err
	}

	origin, err := a.store.BlockOrigin(&block.Header)
	if err != nil {
		return err
	}
	if origin.Kind == store.KnownBlock {
		return nil
	}

	indexedBlock := chain.NewIndexedBlock(block)
	if err := a.store.Insert(indexedBlock); err != nil {
		return err
	}

	switch origin.Kind {
	case store.CanonChain:
		view := &storeOutputView{base: a.store}
		if err := a.acceptAgainstView(block, indexedBlock.Transactions, origin.Height, view); err != nil {
			return err
		}
		if err := a.store.Canonize(indexedBlock.Hash()); err != nil {
			return err
		}
	case store.SideChain, store.SideChainBecomingCanonChain:
		fork, err := a.store.Fork(origin.Origin)
		if err != nil {
			return err
		}
		height := origin.Origin.AncestorHeight + uint32(len(origin.Origin.BlockHashes))
		view := &storeOutputView{base: fork}
		if err := a.acceptAgainstView(block, indexedBlock.Transactions, height, view); err != nil {
			return err
		}
		if err := fork.Commit(); err != nil {
			return err
		}
	}

	for _, tx := range indexedBlock.Transactions {
		a.pool.RemoveByHash(tx.Hash)
	}
	return nil
}

// acceptAgainstView runs every contextual check for block at height against
// base, using a duplexOutputView so in-block outputs shadow base and later
// transactions stay invisible to earlier ones, per spec.md §4.5.
func (a *Acceptor) acceptAgainstView(block *chain.Block, indexed []*chain.IndexedTransaction, height uint32, base storeView) error {
	prevTimes := a.previousHeaderTimes(block.Header.ParentHash(), params.MedianTimeBlocks)
	medianTimePast := median(prevTimes)

	if err := verify.HeaderMedianTimestamp(&block.Header, prevTimes); err != nil {
		return err
	}
	if err := verify.HeaderWork(&block.Header); err != nil {
		return err
	}
	if err := verify.BlockFinality(block, height, medianTimePast); err != nil {
		return err
	}
	if err := verify.BlockSerializedSize(block); err != nil {
		return err
	}
	if err := verify.BlockSigopsCost(block); err != nil {
		return err
	}
	if err := verify.BlockCoinbaseScript(block, height); err != nil {
		return err
	}
	if err := verify.BlockWitness(block); err != nil {
		return err
	}

	dup := newDuplexOutputView(base, indexed)
	var fees uint64
	for i := 1; i < len(indexed); i++ {
		dup.setCurrent(i)
		fee, err := verify.TransactionAcceptor(indexed[i], dup, height)
		if err != nil {
			return err
		}
		sum, ok := addOverflow(fees, fee)
		if !ok {
			return verify.ErrTransactionFeesOverflow
		}
		fees = sum
	}

	return verify.BlockCoinbaseClaim(block, height, fees)
}

// previousHeaderTimes walks up to n ancestors of parentHash via the store's
// parent-hash chain (not by canonical height, so side-chain candidates not
// yet canonized still resolve correctly), returning their timestamps.
func (a *Acceptor) previousHeaderTimes(parentHash primitives.H256, n int) []uint32 {
	times := make([]uint32, 0, n)
	hash := parentHash
	for i := 0; i < n; i++ {
		header, err := a.store.BlockHeader(hash)
		if err != nil {
			break
		}
		times = append(times, header.Time)
		if len(header.PreviousHeaderHash) == 0 {
			break
		}
		hash = header.ParentHash()
	}
	return times
}

func median(times []uint32) uint32 {
	if len(times) == 0 {
		return 0
	}
	sorted := append([]uint32(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

func addOverflow(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
