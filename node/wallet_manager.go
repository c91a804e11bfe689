package node

import (
	"fmt"

	"github.com/decred/dcrd/dcrutil/v4"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/txhelper"
	"github.com/pandoraboxchain/rustheus/worker"
)

// TransactionAcceptor is the subset of accept.Acceptor WalletManager needs.
type TransactionAcceptor interface {
	AcceptTransaction(tx *chain.PaymentTransaction) *worker.Future[struct{}]
}

// TxBroadcaster announces a submitted transaction to the network. Satisfied
// by *net.OutboundWrapper and identical in shape to swap.Broadcaster.
type TxBroadcaster interface {
	Broadcast(tx *chain.PaymentTransaction)
}

// WalletManager owns this node's wallet and drives balance/send
// operations over it, per spec.md §4.9.
type WalletManager struct {
	network   string
	wallet    *keys.Wallet
	store     *store.Store
	funder    *txhelper.Funder
	acceptor  TransactionAcceptor
	broadcast TxBroadcaster
}

// NewWalletManager returns a WalletManager with a fresh, empty wallet.
// pending reports which outpoints a not-yet-canonized mempool transaction
// already spends, so Funder doesn't double-spend an unconfirmed output
// (typically *mempool.Pool).
func NewWalletManager(network string, db *store.Store, pending txhelper.PendingSpends, acceptor TransactionAcceptor, broadcast TxBroadcaster) *WalletManager {
	return &WalletManager{
		network:   network,
		wallet:    keys.NewWallet(),
		store:     db,
		funder:    txhelper.NewFunder(db, pending),
		acceptor:  acceptor,
		broadcast: broadcast,
	}
}

// CreateWallet discards the current wallet and generates one fresh key
// pair, returning its bech32 address.
func (m *WalletManager) CreateWallet() (string, error) {
	m.wallet = keys.NewWallet()
	key, err := keys.NewKeyPair(m.network)
	if err != nil {
		return "", fmt.Errorf("node: generating wallet key: %w", err)
	}
	m.wallet.AddKey(key)
	return keys.EncodeAddress(key.Address())
}

// LoadWallet discards the current wallet and loads a single key pair from a
// raw 32-byte private scalar, the `walletload <privkey>` operation.
func (m *WalletManager) LoadWallet(private []byte) (string, error) {
	m.wallet = keys.NewWallet()
	key := keys.KeyPairFromPrivate(m.network, private)
	m.wallet.AddKey(key)
	return keys.EncodeAddress(key.Address())
}

// CalculateBalance sums the value of every unspent output this wallet's
// keys control.
func (m *WalletManager) CalculateBalance() (dcrutil.Amount, error) {
	var total uint64
	for _, key := range m.wallet.Keys() {
		for _, op := range m.store.TransactionWithOutputAddress(key.PubKeyHash160()) {
			entry, ok := m.store.UTXO(op)
			if !ok {
				continue
			}
			total += entry.Value
		}
	}
	return dcrutil.Amount(total), nil
}

// SendCash builds, funds, signs, submits and broadcasts a transaction
// paying amount to address, the `transfer <address> <amount>` operation.
func (m *WalletManager) SendCash(address string, amount uint64) (*chain.PaymentTransaction, error) {
	addr, err := keys.DecodeAddress(address)
	if err != nil {
		return nil, err
	}

	tx := &chain.PaymentTransaction{
		Version: 1,
		Outputs: []chain.TransactionOutput{{
			Value:        amount,
			ScriptPubKey: script.BuildP2WPKH(addr.Hash),
		}},
	}

	if err := m.funder.Fund(m.wallet, m.network, tx, amount); err != nil {
		return nil, err
	}
	if err := txhelper.Sign(tx, m.wallet, m.store); err != nil {
		return nil, err
	}
	if _, err := m.acceptor.AcceptTransaction(tx).Wait(); err != nil {
		return nil, fmt.Errorf("node: transfer rejected: %w", err)
	}
	m.broadcast.Broadcast(tx)
	return tx, nil
}
