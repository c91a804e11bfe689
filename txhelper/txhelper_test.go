package txhelper

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v3"
	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
)

type fakeUTXOSource struct {
	byAddress map[primitives.H160][]chain.OutPoint
	entries   map[chain.OutPoint]*store.UTXOEntry
}

func (s *fakeUTXOSource) TransactionWithOutputAddress(addr primitives.H160) []chain.OutPoint {
	return s.byAddress[addr]
}

func (s *fakeUTXOSource) UTXO(op chain.OutPoint) (*store.UTXOEntry, bool) {
	e, ok := s.entries[op]
	return e, ok
}

type fakePendingSpends struct {
	spent map[chain.OutPoint]bool
}

func (p *fakePendingSpends) IsSpent(op chain.OutPoint) bool {
	return p.spent[op]
}

func newFundedWallet(t *testing.T) (*keys.Wallet, *keys.KeyPair, chain.OutPoint) {
	t.Helper()
	key, err := keys.NewKeyPair("mainnet")
	require.NoError(t, err)
	wallet := keys.NewWallet()
	wallet.AddKey(key)
	return wallet, key, chain.OutPoint{Hash: primitives.H256{1}, Index: 0}
}

func TestFundAddsChangeOutputWhenOvershooting(t *testing.T) {
	wallet, key, op := newFundedWallet(t)
	source := &fakeUTXOSource{
		byAddress: map[primitives.H160][]chain.OutPoint{key.PubKeyHash160(): {op}},
		entries:   map[chain.OutPoint]*store.UTXOEntry{op: {Value: 100}},
	}
	pending := &fakePendingSpends{spent: map[chain.OutPoint]bool{}}
	funder := NewFunder(source, pending)

	tx := &chain.PaymentTransaction{Version: 1}
	require.NoError(t, funder.Fund(wallet, "mainnet", tx, 60))

	require.Len(t, tx.Inputs, 1)
	require.Equal(t, op, tx.Inputs[0].PreviousOutput)
	require.Len(t, tx.Outputs, 1)
	require.Equal(t, uint64(40), tx.Outputs[0].Value)
}

func TestFundSkipsPendingSpentOutputs(t *testing.T) {
	wallet, key, op := newFundedWallet(t)
	source := &fakeUTXOSource{
		byAddress: map[primitives.H160][]chain.OutPoint{key.PubKeyHash160(): {op}},
		entries:   map[chain.OutPoint]*store.UTXOEntry{op: {Value: 100}},
	}
	pending := &fakePendingSpends{spent: map[chain.OutPoint]bool{op: true}}
	funder := NewFunder(source, pending)

	tx := &chain.PaymentTransaction{Version: 1}
	err := funder.Fund(wallet, "mainnet", tx, 10)
	var fundErr *FundError
	require.ErrorAs(t, err, &fundErr)
	require.Equal(t, FundNoFunds, fundErr.Kind)
}

func TestFundReportsNotEnoughFunds(t *testing.T) {
	wallet, key, op := newFundedWallet(t)
	source := &fakeUTXOSource{
		byAddress: map[primitives.H160][]chain.OutPoint{key.PubKeyHash160(): {op}},
		entries:   map[chain.OutPoint]*store.UTXOEntry{op: {Value: 10}},
	}
	pending := &fakePendingSpends{spent: map[chain.OutPoint]bool{}}
	funder := NewFunder(source, pending)

	tx := &chain.PaymentTransaction{Version: 1}
	err := funder.Fund(wallet, "mainnet", tx, 100)
	var fundErr *FundError
	require.ErrorAs(t, err, &fundErr)
	require.Equal(t, FundNotEnoughFunds, fundErr.Kind)
	require.Equal(t, uint64(10), fundErr.Have)
}

func TestSignProducesVerifiableWitness(t *testing.T) {
	var keyBytes [32]byte
	for i := range keyBytes {
		keyBytes[i] = byte(i + 5)
	}
	priv := secp256k1.PrivKeyFromBytes(keyBytes[:])
	hash160 := primitives.Hash160(priv.PubKey().SerializeCompressed())

	key := keys.KeyPairFromPrivate("mainnet", keyBytes[:])
	wallet := keys.NewWallet()
	wallet.AddKey(key)

	op := chain.OutPoint{Hash: primitives.H256{2}, Index: 0}
	tx := &chain.PaymentTransaction{
		Version: 1,
		Inputs:  []chain.TransactionInput{{PreviousOutput: op, Sequence: chain.FinalSequence}},
		Outputs: []chain.TransactionOutput{{Value: 40, ScriptPubKey: script.BuildP2WPKH(hash160)}},
	}

	source := &fakeOutputSource{outputs: map[chain.OutPoint]chain.TransactionOutput{
		op: {Value: 50, ScriptPubKey: script.BuildP2WPKH(hash160)},
	}}
	require.NoError(t, Sign(tx, wallet, source))
	require.Len(t, tx.Inputs[0].ScriptWitness, 2)

	checker := &script.ChainChecker{Tx: tx, InputIndex: 0, Amount: 50}
	require.NoError(t, script.VerifyScript(nil, script.BuildP2WPKH(hash160), tx.Inputs[0].ScriptWitness, checker, script.SigVersionWitnessV0))
}

func TestSignRejectsUnknownPrevout(t *testing.T) {
	wallet := keys.NewWallet()
	tx := &chain.PaymentTransaction{
		Inputs: []chain.TransactionInput{{PreviousOutput: chain.OutPoint{Hash: primitives.H256{3}}}},
	}
	source := &fakeOutputSource{outputs: map[chain.OutPoint]chain.TransactionOutput{}}
	err := Sign(tx, wallet, source)
	var signErr *SignError
	require.ErrorAs(t, err, &signErr)
	require.Equal(t, SignNoSuchPrevout, signErr.Kind)
}

type fakeOutputSource struct {
	outputs map[chain.OutPoint]chain.TransactionOutput
}

func (s *fakeOutputSource) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error) {
	out, ok := s.outputs[op]
	if !ok {
		return chain.TransactionOutput{}, &SignError{Kind: SignNoSuchPrevout}
	}
	return out, nil
}
