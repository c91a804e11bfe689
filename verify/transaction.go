package verify

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/wire"
)

// MinTransactionSize is a floor on a sane transaction's witness-serialized
// size: version(4) + one-byte input/output counts + lock_time(4).
const MinTransactionSize = 10

// CheckTransaction runs TransactionVerifier's context-free checks: shape,
// size, duplicate inputs, coinbase script_sig bounds, value bounds, and
// per-tx sigop count. It does not touch previous outputs or the store —
// that's TransactionAcceptor's job.
func CheckTransaction(tx *chain.PaymentTransaction) error {
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return ErrEmpty
	}

	size := tx.SerializedSize(wire.FlagWitness)
	if size < MinTransactionSize || size > params.MaxBlockSize {
		return ErrSize
	}

	seen := make(map[chain.OutPoint]struct{}, len(tx.Inputs))
	for i := range tx.Inputs {
		op := tx.Inputs[i].PreviousOutput
		if _, dup := seen[op]; dup {
			return ErrDuplicateInput
		}
		seen[op] = struct{}{}
	}

	if tx.IsCoinbase() {
		n := len(tx.Inputs[0].ScriptSig)
		if n < 2 || n > 100 {
			return ErrBadSize
		}
	} else {
		for i := range tx.Inputs {
			if tx.Inputs[i].PreviousOutput.IsNull() {
				return ErrNullNonCoinbase
			}
		}
	}

	var total uint64
	for _, out := range tx.Outputs {
		if out.Value > params.MaxTransactionValue {
			return ErrBadValue
		}
		sum, ok := addOverflow(total, out.Value)
		if !ok {
			return ErrBadValue
		}
		total = sum
	}

	sigops := 0
	for i := range tx.Inputs {
		sigops += script.CountSigOps(tx.Inputs[i].ScriptSig)
	}
	for i := range tx.Outputs {
		sigops += script.CountSigOps(tx.Outputs[i].ScriptPubKey)
	}
	if sigops > params.MaxTxSigops {
		return ErrSigops
	}
	return nil
}
