package verify

import (
	"sort"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/script"
)

// OutputView resolves previous outputs for contextual acceptance: the
// capability interface spec.md §9 calls for instead of concrete
// inheritance. A store, a store+pool overlay, and an in-block-shadowed
// overlay (accept.DuplexTransactionOutputProvider) all implement it the
// same way.
type OutputView interface {
	Output(op chain.OutPoint) (chain.TransactionOutput, bool)
	IsSpent(op chain.OutPoint) bool
	OutputMeta(op chain.OutPoint) (height uint32, isCoinbase bool, found bool)
}

// BlockFinality requires every transaction be final at (height,
// medianTimePast).
func BlockFinality(block *chain.Block, height uint32, medianTimePast uint32) error {
	for i := range block.Transactions {
		if !block.Transactions[i].IsFinalInBlock(height, medianTimePast) {
			return ErrNonFinalBlock
		}
	}
	return nil
}

// BlockSerializedSize re-checks CheckBlockSize against the active
// consensus fork's bounds (today there is only one fork, so this mirrors
// the pre-verification check).
func BlockSerializedSize(block *chain.Block) error {
	return CheckBlockSize(block)
}

// BlockSigopsCost bounds the block's aggregate sigop count, both
// unweighted (BlockSigops) and weighted by WitnessScaleFactor
// (BlockSigopsCost): this module does not implement SegWit's
// accurate-sigops witness discount, so both limits are checked against the
// same raw count.
func BlockSigopsCost(block *chain.Block) error {
	total := 0
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		for j := range tx.Inputs {
			total += script.CountSigOps(tx.Inputs[j].ScriptSig)
		}
		for j := range tx.Outputs {
			total += script.CountSigOps(tx.Outputs[j].ScriptPubKey)
		}
	}
	if total > params.MaxBlockSigops {
		return ErrMaximumSigops
	}
	if total*params.WitnessScaleFactor > params.MaxBlockSigopsCost {
		return ErrMaximumSigopsCost
	}
	return nil
}

// BlockCoinbaseClaim requires the coinbase output total not exceed
// subsidy(height) + fees.
func BlockCoinbaseClaim(block *chain.Block, height uint32, fees uint64) error {
	maxAllowed, ok := addOverflow(params.Subsidy(height), fees)
	if !ok {
		return ErrTransactionFeeAndRewardOverflow
	}
	claim := block.Transactions[0].TotalSpends()
	if claim > maxAllowed {
		return &CoinbaseOverspendError{ExpectedMax: maxAllowed, Actual: claim}
	}
	return nil
}

// BlockCoinbaseScript requires the coinbase's script_sig begin with a push
// of the block height ("BIP34").
func BlockCoinbaseScript(block *chain.Block, height uint32) error {
	want := script.PushInt(int64(height))
	got := block.Transactions[0].Inputs[0].ScriptSig
	if len(got) < len(want) || !bytesHavePrefix(got, want) {
		return ErrCoinbaseScript
	}
	return nil
}

func bytesHavePrefix(got, want []byte) bool {
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// BlockWitness requires the header's witness Merkle root match the
// recomputed value.
func BlockWitness(block *chain.Block) error {
	if block.Header.WitnessMerkleRootHash != block.ComputeWitnessMerkleRoot() {
		return ErrWitnessMerkleCommitmentMismatch
	}
	return nil
}

// HeaderWork is stubbed: proof-of-work verification is bypassed, per
// spec.md §9.
func HeaderWork(header *chain.BlockHeader) error {
	return nil
}

// HeaderMedianTimestamp requires header.Time exceed the median of up to the
// previous params.MedianTimeBlocks headers' times. An empty prevTimes
// (genesis) always passes.
func HeaderMedianTimestamp(header *chain.BlockHeader, prevTimes []uint32) error {
	if len(prevTimes) == 0 {
		return nil
	}
	sorted := append([]uint32(nil), prevTimes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := sorted[len(sorted)/2]
	if header.Time <= median {
		return ErrTimestamp
	}
	return nil
}

// TransactionAcceptor validates tx contextually: every input's previous
// output exists in view and is unspent, coinbase maturity, script
// execution, and a non-negative, non-overflowing fee. It returns the fee.
func TransactionAcceptor(tx *chain.IndexedTransaction, view OutputView, height uint32) (uint64, error) {
	payment := &tx.Transaction

	var inputSum uint64
	for i := range payment.Inputs {
		in := &payment.Inputs[i]

		out, ok := view.Output(in.PreviousOutput)
		if !ok {
			return 0, ErrNoPrevout
		}
		if view.IsSpent(in.PreviousOutput) {
			return 0, ErrDoubleSpend
		}
		if outHeight, isCoinbase, found := view.OutputMeta(in.PreviousOutput); found && isCoinbase {
			if height < outHeight+params.CoinbaseMaturity {
				return 0, ErrMaturity
			}
		}

		version := script.SigVersionBase
		if prog, ok := script.ExtractWitnessProgram(out.ScriptPubKey); ok && prog.Version == 0 {
			version = script.SigVersionWitnessV0
		}
		checker := &script.ChainChecker{Tx: payment, InputIndex: i, Amount: out.Value}
		if err := script.VerifyScript(in.ScriptSig, out.ScriptPubKey, in.ScriptWitness, checker, version); err != nil {
			return 0, ErrSignature
		}

		sum, ok := addOverflow(inputSum, out.Value)
		if !ok {
			return 0, ErrReferencedInputsSumOverflow
		}
		inputSum = sum
	}

	outputSum := payment.TotalSpends()
	if inputSum < outputSum {
		return 0, ErrOverspend
	}
	return inputSum - outputSum, nil
}

// ChainAcceptor runs every contextual check against block/indexed/view and
// returns the total transaction fees collected, composing BlockAcceptor and
// HeaderAcceptor per spec.md §4.5.
func ChainAcceptor(block *chain.Block, indexed []*chain.IndexedTransaction, height uint32,
	medianTimePast uint32, prevTimes []uint32, view OutputView) (uint64, error) {

	if err := HeaderMedianTimestamp(&block.Header, prevTimes); err != nil {
		return 0, err
	}
	if err := HeaderWork(&block.Header); err != nil {
		return 0, err
	}
	if err := BlockFinality(block, height, medianTimePast); err != nil {
		return 0, err
	}
	if err := BlockSerializedSize(block); err != nil {
		return 0, err
	}
	if err := BlockSigopsCost(block); err != nil {
		return 0, err
	}
	if err := BlockCoinbaseScript(block, height); err != nil {
		return 0, err
	}
	if err := BlockWitness(block); err != nil {
		return 0, err
	}

	var fees uint64
	for i := 1; i < len(indexed); i++ {
		fee, err := TransactionAcceptor(indexed[i], view, height)
		if err != nil {
			return 0, err
		}
		sum, ok := addOverflow(fees, fee)
		if !ok {
			return 0, ErrTransactionFeesOverflow
		}
		fees = sum
	}

	if err := BlockCoinbaseClaim(block, height, fees); err != nil {
		return 0, err
	}
	return fees, nil
}
