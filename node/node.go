package node

import (
	"fmt"

	"github.com/pandoraboxchain/rustheus/accept"
	"github.com/pandoraboxchain/rustheus/config"
	"github.com/pandoraboxchain/rustheus/mempool"
	"github.com/pandoraboxchain/rustheus/net"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/worker"
)

// outboundQueueCapacity bounds OutboundWrapper's queue; when it is full the
// message being queued is dropped rather than blocking a verifier worker.
const outboundQueueCapacity = 256

// Node wires together every module this package's Executor/WalletManager
// sit on top of: the block store, mempool, worker pool, acceptor, message
// handler, and outbound queue, per spec.md §1's process layout.
type Node struct {
	Config    *config.Config
	Store     *store.Store
	Pool      *mempool.Pool
	Workers   *worker.Pool
	Acceptor  *accept.Acceptor
	Responder *net.Responder
	Handler   *net.MessageHandler
	Outbound  *net.OutboundWrapper

	Executor      *Executor
	WalletManager *WalletManager
}

// New validates cfg, then constructs and wires every collaborator a running
// node needs: store initialized with cfg.Params.Genesis, a worker pool
// sized per cfg.WorkerPoolSize, an Acceptor over store+pool+workers, a
// Responder/MessageHandler pair for the wire protocol, and an
// OutboundWrapper bridging Executor/WalletManager to the transport layer.
func New(cfg *config.Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("node: invalid config: %w", err)
	}

	db := store.New()
	if err := db.InitGenesis(&cfg.Params.Genesis); err != nil {
		return nil, fmt.Errorf("node: initializing genesis: %w", err)
	}

	pool := mempool.New(nil)
	workers := worker.NewPool(cfg.WorkerPoolSize)
	acceptor := accept.New(db, pool, workers)
	responder := net.NewResponder(db)
	handler := net.NewMessageHandler(cfg.Params.Magic, db, acceptor, responder)
	outbound := net.NewOutboundWrapper(cfg.Params.Magic, outboundQueueCapacity)

	executor := NewExecutor(db, pool, acceptor, outbound)
	walletManager := NewWalletManager(cfg.Params.Name, db, pool, acceptor, outbound)

	return &Node{
		Config:        cfg,
		Store:         db,
		Pool:          pool,
		Workers:       workers,
		Acceptor:      acceptor,
		Responder:     responder,
		Handler:       handler,
		Outbound:      outbound,
		Executor:      executor,
		WalletManager: walletManager,
	}, nil
}

// Shutdown stops the worker pool, draining in-flight acceptance jobs.
func (n *Node) Shutdown() {
	n.Workers.Stop()
}
