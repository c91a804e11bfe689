// Package chain implements the block and transaction data model: outpoints,
// payment transactions and their specialized siblings, block headers, and
// the Indexed* wrappers that cache a hash alongside the raw structure.
package chain

import (
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// NullOutputIndex is the output index used by the null outpoint.
const NullOutputIndex = 0xffffffff

// OutPoint names a UTXO by the hash of the transaction that created it and
// the index of the output within that transaction.
type OutPoint struct {
	Hash  primitives.H256
	Index uint32
}

// NullOutPoint is the outpoint used by a coinbase input's single input.
var NullOutPoint = OutPoint{Hash: primitives.ZeroH256, Index: NullOutputIndex}

// IsNull reports whether o is the null outpoint.
func (o OutPoint) IsNull() bool {
	return o.Hash.IsZero() && o.Index == NullOutputIndex
}

// Serialize writes the outpoint: hash then little-endian index.
func (o OutPoint) Serialize(w wire.Writer) error {
	if err := wire.WriteFixedHash(w, o.Hash[:]); err != nil {
		return err
	}
	return wire.WriteUint32(w, o.Index)
}

// Deserialize reads an outpoint written by Serialize.
func (o *OutPoint) Deserialize(r wire.Reader) error {
	if err := wire.ReadFixedHash(r, o.Hash[:]); err != nil {
		return err
	}
	idx, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	o.Index = idx
	return nil
}
