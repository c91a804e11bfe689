package chain

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// LockTimeThreshold is the boundary between a lock_time interpreted as a
// block height (< threshold) and one interpreted as a unix timestamp.
const LockTimeThreshold = 500000000

// FinalSequence marks a transaction input as final: its presence on every
// input of a transaction makes that transaction's lock_time irrelevant.
const FinalSequence = 0xffffffff

// TransactionInput spends a previous output and carries its unlocking
// script plus, when the containing transaction is witness-serialized, a
// witness stack.
type TransactionInput struct {
	PreviousOutput OutPoint
	ScriptSig      []byte
	Sequence       uint32
	ScriptWitness  [][]byte
}

// IsFinal reports whether this input's sequence number disables relative
// lock-time / RBF semantics for it.
func (in *TransactionInput) IsFinal() bool {
	return in.Sequence == FinalSequence
}

// HasWitness reports whether this input carries a non-empty witness stack.
func (in *TransactionInput) HasWitness() bool {
	return len(in.ScriptWitness) > 0
}

func (in *TransactionInput) serializeNonWitness(w wire.Writer) error {
	if err := in.PreviousOutput.Serialize(w); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, in.ScriptSig); err != nil {
		return err
	}
	return wire.WriteUint32(w, in.Sequence)
}

func (in *TransactionInput) deserializeNonWitness(r wire.Reader) error {
	if err := in.PreviousOutput.Deserialize(r); err != nil {
		return err
	}
	scriptSig, err := wire.ReadVarBytes(r)
	if err != nil {
		return err
	}
	in.ScriptSig = scriptSig
	seq, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	in.Sequence = seq
	return nil
}

func (in *TransactionInput) serializeWitness(w wire.Writer) error {
	if err := wire.WriteVarInt(w, uint64(len(in.ScriptWitness))); err != nil {
		return err
	}
	for _, item := range in.ScriptWitness {
		if err := wire.WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (in *TransactionInput) deserializeWitness(r wire.Reader) error {
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	witness := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := wire.ReadVarBytes(r)
		if err != nil {
			return err
		}
		witness = append(witness, item)
	}
	in.ScriptWitness = witness
	return nil
}

// DefaultSentinelValue is the sentinel value used for an output before its
// real value has been assigned.
const DefaultSentinelValue = ^uint64(0)

// TransactionOutput pays a value, locked by script_pubkey.
type TransactionOutput struct {
	Value        uint64
	ScriptPubKey []byte
}

// NewSentinelOutput returns an output with the all-ones sentinel value,
// used as a placeholder before a transaction's real outputs are assigned.
func NewSentinelOutput(scriptPubKey []byte) TransactionOutput {
	return TransactionOutput{Value: DefaultSentinelValue, ScriptPubKey: scriptPubKey}
}

func (out *TransactionOutput) Serialize(w wire.Writer) error {
	if err := wire.WriteUint64(w, out.Value); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, out.ScriptPubKey)
}

func (out *TransactionOutput) Deserialize(r wire.Reader) error {
	v, err := wire.ReadUint64(r)
	if err != nil {
		return err
	}
	out.Value = v
	script, err := wire.ReadVarBytes(r)
	if err != nil {
		return err
	}
	out.ScriptPubKey = script
	return nil
}

// witnessMarker/witnessFlag are the two bytes inserted after the version
// field when a transaction is serialized with FlagWitness, the same
// marker/flag convention SegWit uses to stay backward compatible with
// parsers that don't understand witness data.
const (
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// PaymentTransaction is the payment transaction variant: a version, a list
// of inputs, a list of outputs, and a lock_time.
type PaymentTransaction struct {
	Version  int32
	Inputs   []TransactionInput
	Outputs  []TransactionOutput
	LockTime uint32
}

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// input whose previous output is the null outpoint.
func (tx *PaymentTransaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutput.IsNull()
}

// HasWitness reports whether any input carries a non-empty witness stack.
func (tx *PaymentTransaction) HasWitness() bool {
	for i := range tx.Inputs {
		if tx.Inputs[i].HasWitness() {
			return true
		}
	}
	return false
}

// TotalSpends returns the saturating sum of every output's value.
func (tx *PaymentTransaction) TotalSpends() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total = saturatingAdd(total, out.Value)
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// IsFinalInBlock reports whether tx may be included in a block at the given
// height and median-time-past, per spec: lock_time == 0, or lock_time below
// the height/time threshold as appropriate, or every input final.
func (tx *PaymentTransaction) IsFinalInBlock(height uint32, medianTimePast uint32) bool {
	if tx.LockTime == 0 {
		return true
	}
	var threshold uint32
	if tx.LockTime < LockTimeThreshold {
		threshold = height
	} else {
		threshold = medianTimePast
	}
	if tx.LockTime < threshold {
		return true
	}
	for i := range tx.Inputs {
		if !tx.Inputs[i].IsFinal() {
			return false
		}
	}
	return true
}

// Serialize writes the transaction using the non-witness form, or the
// witness form (with marker/flag and per-input witness stacks) when flags
// includes FlagWitness.
func (tx *PaymentTransaction) Serialize(w wire.Writer, flags wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}

	useWitness := flags.Has(wire.FlagWitness)
	if useWitness {
		if err := wire.WriteUint8(w, witnessMarker); err != nil {
			return err
		}
		if err := wire.WriteUint8(w, witnessFlag); err != nil {
			return err
		}
	}

	if err := wire.WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for i := range tx.Inputs {
		if err := tx.Inputs[i].serializeNonWitness(w); err != nil {
			return err
		}
	}

	if err := wire.WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := tx.Outputs[i].Serialize(w); err != nil {
			return err
		}
	}

	if useWitness {
		for i := range tx.Inputs {
			if err := tx.Inputs[i].serializeWitness(w); err != nil {
				return err
			}
		}
	}

	return wire.WriteUint32(w, tx.LockTime)
}

// Deserialize reads a transaction written by Serialize, auto-detecting the
// witness form from the marker/flag bytes.
func (tx *PaymentTransaction) Deserialize(r wire.Reader) error {
	version, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	tx.Version = version

	firstCount, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}

	isWitness := false
	if firstCount == witnessMarker {
		flag, err := wire.ReadUint8(r)
		if err != nil {
			return err
		}
		if flag != witnessFlag {
			return newMalformed("wire: unsupported segwit flag")
		}
		isWitness = true
		firstCount, err = wire.ReadVarInt(r)
		if err != nil {
			return err
		}
	}

	inputs := make([]TransactionInput, firstCount)
	for i := range inputs {
		if err := inputs[i].deserializeNonWitness(r); err != nil {
			return err
		}
	}

	outCount, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	outputs := make([]TransactionOutput, outCount)
	for i := range outputs {
		if err := outputs[i].Deserialize(r); err != nil {
			return err
		}
	}

	if isWitness {
		for i := range inputs {
			if err := inputs[i].deserializeWitness(r); err != nil {
				return err
			}
		}
	}

	lockTime, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}

	tx.Inputs = inputs
	tx.Outputs = outputs
	tx.LockTime = lockTime
	return nil
}

// SerializedSize returns the byte length of tx serialized with flags.
func (tx *PaymentTransaction) SerializedSize(flags wire.SerializeFlags) int {
	var counter countingWriter
	_ = tx.Serialize(&counter, flags)
	return counter.n
}

// Hash computes the non-witness transaction hash: double-SHA256 of the
// non-witness serialization.
func (tx *PaymentTransaction) Hash() primitives.H256 {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf, wire.FlagNone)
	return primitives.DoubleSHA256(buf.Bytes())
}

// WitnessHash computes double-SHA256 of the witness serialization. For a
// transaction with no witnesses this is identical to Hash.
func (tx *PaymentTransaction) WitnessHash() primitives.H256 {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf, wire.FlagWitness)
	return primitives.DoubleSHA256(buf.Bytes())
}

func newMalformed(msg string) error {
	return &wire.CodecError{Kind: wire.MalformedData, Msg: msg}
}
