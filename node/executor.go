package node

import (
	"bytes"
	"time"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/wire"
	"github.com/pandoraboxchain/rustheus/worker"
)

// maxBlockTransactions bounds how many pool transactions SignBlock pulls
// into a single block, per spec.md §4.9.
const maxBlockTransactions = 50

// locatorSteps is how many exponentially-spaced heights RequestLatestBlocks
// walks below the tip before falling back to genesis, per spec.md §4.9's
// getblocks locator shape.
const locatorSteps = 32

// BlockAcceptor is the subset of accept.Acceptor Executor needs.
type BlockAcceptor interface {
	AcceptBlock(block *chain.Block) *worker.Future[struct{}]
}

// Broadcaster is the subset of net.OutboundWrapper Executor needs to
// announce newly signed blocks and send locator requests.
type Broadcaster interface {
	BroadcastBlock(block *chain.Block)
	Send(peerID, command string, payload []byte) error
}

// Executor assembles and signs new blocks and drives header sync requests,
// per spec.md §4.9.
type Executor struct {
	store     *store.Store
	pool      *mempool.Pool
	acceptor  BlockAcceptor
	broadcast Broadcaster
}

// NewExecutor returns an Executor backed by db/pool, submitting assembled
// blocks through acceptor and announcing them through broadcast.
func NewExecutor(db *store.Store, pool *mempool.Pool, acceptor BlockAcceptor, broadcast Broadcaster) *Executor {
	return &Executor{store: db, pool: pool, acceptor: acceptor, broadcast: broadcast}
}

// SignBlock assembles a block paying coinbaseRecipient, filling it with up
// to maxBlockTransactions of the mempool's highest-score transactions,
// submits it for acceptance, and broadcasts it once accepted.
func (e *Executor) SignBlock(coinbaseRecipient primitives.H160) (*chain.Block, error) {
	var tip uint32
	var parent primitives.H256
	if _, height, err := e.store.BestBlock(); err == nil {
		tip = height + 1
		parent, err = e.store.BlockHash(height)
		if err != nil {
			return nil, err
		}
	}

	coinbase := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(int64(tip)),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        params.Subsidy(tip),
			ScriptPubKey: script.BuildP2WPKH(coinbaseRecipient),
		}},
	}

	candidates := e.pool.Snapshot(mempool.ByTransactionScore)
	if len(candidates) > maxBlockTransactions {
		candidates = candidates[:maxBlockTransactions]
	}

	block := &chain.Block{
		Header: chain.BlockHeader{
			Version:            1,
			PreviousHeaderHash: []primitives.H256{parent},
			Time:               uint32(time.Now().Unix()),
		},
		Transactions: make([]chain.PaymentTransaction, 0, len(candidates)+1),
	}
	block.Transactions = append(block.Transactions, coinbase)
	for _, tx := range candidates {
		block.Transactions = append(block.Transactions, tx.Transaction)
	}
	block.Header.MerkleRootHash = block.ComputeMerkleRoot()
	block.Header.WitnessMerkleRootHash = block.ComputeWitnessMerkleRoot()

	if _, err := e.acceptor.AcceptBlock(block).Wait(); err != nil {
		return nil, err
	}
	log.Infof("signed block %s at height %d with %d transactions", block.Header.Hash(), tip, len(block.Transactions))
	e.broadcast.BroadcastBlock(block)
	return block, nil
}

// RequestLatestBlocks builds a getblocks locator walking heights
// tip, tip-1, tip-2, tip-4, tip-8, ... down to genesis, and sends it to
// peerID (empty broadcasts to every connected peer).
func (e *Executor) RequestLatestBlocks(peerID string) error {
	_, tip, err := e.store.BestBlock()
	if err != nil {
		return err
	}

	var locator [][32]byte
	offset := uint32(0)
	for {
		h := uint32(0)
		if offset < tip {
			h = tip - offset
		}
		if hash, err := e.store.BlockHash(h); err == nil {
			locator = append(locator, [32]byte(hash))
		}
		if h == 0 || len(locator) >= locatorSteps {
			break
		}
		if offset == 0 {
			offset = 1
		} else {
			offset *= 2
		}
	}
	if genesis, err := e.store.BlockHash(0); err == nil {
		if len(locator) == 0 || locator[len(locator)-1] != [32]byte(genesis) {
			locator = append(locator, [32]byte(genesis))
		}
	}

	gb := wire.GetBlocks{Version: 1, LocatorHashes: locator}
	var buf bytes.Buffer
	if err := gb.Serialize(&buf, wire.FlagNone); err != nil {
		return err
	}
	return e.broadcast.Send(peerID, wire.CmdGetBlocks, buf.Bytes())
}
