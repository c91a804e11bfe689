package mempool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
)

type fakeSource struct {
	outputs map[chain.OutPoint]chain.TransactionOutput
}

func (s *fakeSource) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error) {
	out, ok := s.outputs[op]
	if !ok {
		return chain.TransactionOutput{}, errors.New("mempool_test: unknown outpoint")
	}
	return out, nil
}

func spendingTx(t *testing.T, spend chain.OutPoint, value uint64, final bool, salt byte) *chain.IndexedTransaction {
	t.Helper()
	var recipient primitives.H160
	recipient[0] = salt
	sequence := chain.FinalSequence
	if !final {
		sequence = 0
	}
	tx := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: spend,
			Sequence:       uint32(sequence),
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        value,
			ScriptPubKey: script.BuildP2WPKH(recipient),
		}},
	}
	return chain.NewIndexedTransaction(tx)
}

func TestInsertVerifiedComputesFeeAndIndexes(t *testing.T) {
	p := New(nil)
	spend := chain.OutPoint{Hash: primitives.H256{1}, Index: 0}
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{
		spend: {Value: 100},
	}}

	tx := spendingTx(t, spend, 80, true, 1)
	p.InsertVerified(tx, source)

	require.True(t, p.Contains(tx.Hash))
	require.True(t, p.IsSpent(spend))
	require.Equal(t, uint64(20), p.byHash[tx.Hash].fee)

	var recipient primitives.H160
	recipient[0] = 1
	ops := p.TransactionWithOutputAddress(recipient)
	require.Len(t, ops, 1)
}

func TestCheckDoubleSpendDistinguishesFinalFromNonFinal(t *testing.T) {
	p := New(nil)
	spend := chain.OutPoint{Hash: primitives.H256{2}, Index: 0}
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{spend: {Value: 50}}}

	nonFinal := spendingTx(t, spend, 10, false, 2)
	p.InsertVerified(nonFinal, source)

	conflict := chain.PaymentTransaction{
		Inputs: []chain.TransactionInput{{PreviousOutput: spend, Sequence: chain.FinalSequence}},
	}
	require.Equal(t, NonFinalDoubleSpendSet, p.CheckDoubleSpend(&conflict))

	p.RemoveByHash(nonFinal.Hash)
	final := spendingTx(t, spend, 10, true, 3)
	p.InsertVerified(final, source)
	require.Equal(t, DoubleSpend, p.CheckDoubleSpend(&conflict))
}

func TestInsertVerifiedEvictsNonFinalConflict(t *testing.T) {
	p := New(nil)
	spend := chain.OutPoint{Hash: primitives.H256{3}, Index: 0}
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{spend: {Value: 50}}}

	first := spendingTx(t, spend, 10, false, 4)
	p.InsertVerified(first, source)
	require.True(t, p.Contains(first.Hash))

	second := spendingTx(t, spend, 20, false, 5)
	p.InsertVerified(second, source)

	require.False(t, p.Contains(first.Hash))
	require.True(t, p.Contains(second.Hash))
}

func TestSnapshotOrdersByTransactionScore(t *testing.T) {
	p := New(nil)
	lowFeeSpend := chain.OutPoint{Hash: primitives.H256{4}, Index: 0}
	highFeeSpend := chain.OutPoint{Hash: primitives.H256{5}, Index: 0}
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{
		lowFeeSpend:  {Value: 100},
		highFeeSpend: {Value: 100},
	}}

	low := spendingTx(t, lowFeeSpend, 99, true, 6)  // fee 1
	high := spendingTx(t, highFeeSpend, 50, true, 7) // fee 50
	p.InsertVerified(low, source)
	p.InsertVerified(high, source)

	ordered := p.Snapshot(ByTransactionScore)
	require.Len(t, ordered, 2)
	require.Equal(t, high.Hash, ordered[0].Hash)
	require.Equal(t, low.Hash, ordered[1].Hash)
}

func TestRemoveNWithStrategyRemovesReturned(t *testing.T) {
	p := New(nil)
	spend := chain.OutPoint{Hash: primitives.H256{6}, Index: 0}
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{spend: {Value: 10}}}
	tx := spendingTx(t, spend, 5, true, 8)
	p.InsertVerified(tx, source)

	removed := p.RemoveNWithStrategy(10, ByTimestamp)
	require.Len(t, removed, 1)
	require.False(t, p.Contains(tx.Hash))
}
