package script

import (
	"bytes"
	"fmt"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// SighashType selects which parts of the transaction a signature commits to.
type SighashType uint32

const (
	SighashAll          SighashType = 1
	SighashNone         SighashType = 2
	SighashSingle       SighashType = 3
	SighashAnyoneCanPay SighashType = 0x80

	sighashMask = 0x1f
)

func (s SighashType) baseType() SighashType {
	return s & sighashMask
}

func (s SighashType) anyoneCanPay() bool {
	return s&SighashAnyoneCanPay != 0
}

// ComputeSighash computes the digest a signer commits to for the input at
// inputIndex of tx, against scriptCode (the previous output's script, or for
// WitnessV0 the resolved witness script/synthesized P2PKH script), using
// algorithm version and sighash type hashType. amount is only consulted for
// SigVersionWitnessV0 (BIP143 commits to the spent input's value).
func ComputeSighash(tx *chain.PaymentTransaction, inputIndex int, amount uint64,
	scriptCode []byte, version SigVersion, hashType SighashType) (primitives.H256, error) {

	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return primitives.H256{}, fmt.Errorf("script: input index %d out of range", inputIndex)
	}

	if version == SigVersionWitnessV0 {
		return witnessV0Sighash(tx, inputIndex, amount, scriptCode, hashType)
	}
	return baseSighash(tx, inputIndex, scriptCode, hashType)
}

// baseSighash implements the legacy (pre-segwit) signature hash algorithm:
// serialize a modified copy of the transaction with every scriptSig blanked
// except the signed input's (set to scriptCode), apply the ALL/NONE/SINGLE
// and ANYONECANPAY input/output pruning rules, append the sighash type as a
// little-endian uint32, and double-SHA256 the result.
func baseSighash(tx *chain.PaymentTransaction, inputIndex int, scriptCode []byte,
	hashType SighashType) (primitives.H256, error) {

	base := hashType.baseType()
	if base == SighashSingle && inputIndex >= len(tx.Outputs) {
		// Matches the historical "SIGHASH_SINGLE bug": signing an index
		// with no corresponding output hashes the value 1 instead of
		// erroring, for backward compatibility with existing consensus.
		return primitives.H256{0x01}, nil
	}

	inputs := tx.Inputs
	if hashType.anyoneCanPay() {
		inputs = []chain.TransactionInput{tx.Inputs[inputIndex]}
	}

	outputs := tx.Outputs
	switch base {
	case SighashNone:
		outputs = nil
	case SighashSingle:
		outputs = tx.Outputs[:inputIndex+1]
	}

	signedIdx := inputIndex
	if hashType.anyoneCanPay() {
		signedIdx = 0
	}

	copied := make([]chain.TransactionInput, len(inputs))
	for i, in := range inputs {
		copied[i] = chain.TransactionInput{
			PreviousOutput: in.PreviousOutput,
			Sequence:       in.Sequence,
		}
		if i == signedIdx {
			copied[i].ScriptSig = append([]byte(nil), scriptCode...)
		}
		if base == SighashNone || base == SighashSingle {
			if i != signedIdx {
				copied[i].Sequence = 0
			}
		}
	}

	copiedOutputs := make([]chain.TransactionOutput, len(outputs))
	for i, out := range outputs {
		if base == SighashSingle && i != inputIndex {
			copiedOutputs[i] = chain.TransactionOutput{Value: chain.DefaultSentinelValue}
			continue
		}
		copiedOutputs[i] = out
	}

	shallow := chain.PaymentTransaction{
		Version:  tx.Version,
		Inputs:   copied,
		Outputs:  copiedOutputs,
		LockTime: tx.LockTime,
	}

	var buf bytes.Buffer
	if err := shallow.Serialize(&buf, wire.FlagNone); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteUint32(&buf, uint32(hashType)); err != nil {
		return primitives.H256{}, err
	}
	return primitives.DoubleSHA256(buf.Bytes()), nil
}

// witnessV0Sighash implements the BIP143 pre-image: a digest committing to
// the aggregated hashes of all prevouts/sequences/outputs (pruned per
// ANYONECANPAY/NONE/SINGLE), the signed outpoint, scriptCode, the input's
// spent amount, its sequence, and the transaction's locktime and sighash
// type.
func witnessV0Sighash(tx *chain.PaymentTransaction, inputIndex int, amount uint64,
	scriptCode []byte, hashType SighashType) (primitives.H256, error) {

	base := hashType.baseType()
	anyoneCanPay := hashType.anyoneCanPay()

	var hashPrevouts, hashSequence, hashOutputs primitives.H256

	if !anyoneCanPay {
		var buf bytes.Buffer
		for _, in := range tx.Inputs {
			if err := in.PreviousOutput.Serialize(&buf); err != nil {
				return primitives.H256{}, err
			}
		}
		hashPrevouts = primitives.DoubleSHA256(buf.Bytes())
	}

	if !anyoneCanPay && base != SighashSingle && base != SighashNone {
		var buf bytes.Buffer
		for _, in := range tx.Inputs {
			if err := wire.WriteUint32(&buf, in.Sequence); err != nil {
				return primitives.H256{}, err
			}
		}
		hashSequence = primitives.DoubleSHA256(buf.Bytes())
	}

	switch {
	case base != SighashSingle && base != SighashNone:
		var buf bytes.Buffer
		for _, out := range tx.Outputs {
			if err := out.Serialize(&buf); err != nil {
				return primitives.H256{}, err
			}
		}
		hashOutputs = primitives.DoubleSHA256(buf.Bytes())
	case base == SighashSingle && inputIndex < len(tx.Outputs):
		var buf bytes.Buffer
		if err := tx.Outputs[inputIndex].Serialize(&buf); err != nil {
			return primitives.H256{}, err
		}
		hashOutputs = primitives.DoubleSHA256(buf.Bytes())
	}

	var buf bytes.Buffer
	if err := wire.WriteInt32(&buf, tx.Version); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteFixedHash(&buf, hashPrevouts[:]); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteFixedHash(&buf, hashSequence[:]); err != nil {
		return primitives.H256{}, err
	}
	if err := tx.Inputs[inputIndex].PreviousOutput.Serialize(&buf); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteVarBytes(&buf, scriptCode); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteUint64(&buf, amount); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteUint32(&buf, tx.Inputs[inputIndex].Sequence); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteFixedHash(&buf, hashOutputs[:]); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteUint32(&buf, tx.LockTime); err != nil {
		return primitives.H256{}, err
	}
	if err := wire.WriteUint32(&buf, uint32(hashType)); err != nil {
		return primitives.H256{}, err
	}
	return primitives.DoubleSHA256(buf.Bytes()), nil
}
