package txhelper

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
)

// finalLocktimeEnabledSequence is the sequence number spec.md §4.10's
// funding step assigns to every input it adds: final for RBF purposes, but
// leaves the transaction's lock_time meaningful.
const finalLocktimeEnabledSequence = 0xfffffffe

// UTXOSource resolves a wallet address's unspent outputs, the canonical
// view Fund selects from (normally *store.Store).
type UTXOSource interface {
	TransactionWithOutputAddress(addr primitives.H160) []chain.OutPoint
	UTXO(op chain.OutPoint) (*store.UTXOEntry, bool)
}

// PendingSpends reports whether an outpoint is already claimed by some
// pending pool transaction (normally *mempool.Pool).
type PendingSpends interface {
	IsSpent(op chain.OutPoint) bool
}

// Funder selects inputs from a wallet's controlled outputs to cover a
// transaction's needed value, per spec.md §4.10.
type Funder struct {
	source  UTXOSource
	pending PendingSpends
}

// NewFunder returns a Funder reading unspent outputs from source and
// excluding those pending spends already claims.
func NewFunder(source UTXOSource, pending PendingSpends) *Funder {
	return &Funder{source: source, pending: pending}
}

// Fund walks wallet's address index adding inputs to tx until their summed
// value is at least needed, appending a change output paying a freshly
// generated P2WPKH address (added to wallet) if the sum overshoots needed.
func (f *Funder) Fund(wallet *keys.Wallet, network string, tx *chain.PaymentTransaction, needed uint64) error {
	var sum uint64

outer:
	for _, key := range wallet.Keys() {
		for _, op := range f.source.TransactionWithOutputAddress(key.PubKeyHash160()) {
			if f.pending.IsSpent(op) {
				continue
			}
			entry, ok := f.source.UTXO(op)
			if !ok {
				continue
			}

			tx.Inputs = append(tx.Inputs, chain.TransactionInput{
				PreviousOutput: op,
				Sequence:       finalLocktimeEnabledSequence,
			})
			sum += entry.Value
			if sum >= needed {
				break outer
			}
		}
	}

	if sum == 0 {
		return &FundError{Kind: FundNoFunds}
	}
	if sum < needed {
		return &FundError{Kind: FundNotEnoughFunds, Needed: needed, Have: sum}
	}

	if sum > needed {
		change, err := keys.NewKeyPair(network)
		if err != nil {
			return err
		}
		wallet.AddKey(change)
		tx.Outputs = append(tx.Outputs, chain.TransactionOutput{
			Value:        sum - needed,
			ScriptPubKey: script.BuildP2WPKH(change.PubKeyHash160()),
		})
	}
	return nil
}
