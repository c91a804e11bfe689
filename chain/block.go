package chain

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// BlockHeader is the block's proof-of-work envelope. PreviousHeaderHash is a
// sequence rather than a single hash to accommodate a multi-parent/DAG
// ancestry model; every code path in this module treats index 0 as the
// singular parent (see SPEC_FULL.md / Open Questions — multi-parent blocks
// are not wired up beyond the codec).
type BlockHeader struct {
	Version                uint32
	PreviousHeaderHash     []primitives.H256
	MerkleRootHash         primitives.H256
	WitnessMerkleRootHash  primitives.H256
	Time                   uint32
	Bits                   uint32
	Nonce                  uint32
}

// ParentHash returns the header's singular parent, PreviousHeaderHash[0].
// Panics if the header has no parents (only the genesis header is allowed
// an empty parent list).
func (h *BlockHeader) ParentHash() primitives.H256 {
	return h.PreviousHeaderHash[0]
}

// Serialize writes the header. flags are accepted for interface symmetry
// with Serializable but headers have no witness-dependent content.
func (h *BlockHeader) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteUint32(w, h.Version); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, uint64(len(h.PreviousHeaderHash))); err != nil {
		return err
	}
	for _, parent := range h.PreviousHeaderHash {
		if err := wire.WriteFixedHash(w, parent[:]); err != nil {
			return err
		}
	}
	if err := wire.WriteFixedHash(w, h.MerkleRootHash[:]); err != nil {
		return err
	}
	if err := wire.WriteFixedHash(w, h.WitnessMerkleRootHash[:]); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, h.Time); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, h.Bits); err != nil {
		return err
	}
	return wire.WriteUint32(w, h.Nonce)
}

// Deserialize reads a header written by Serialize.
func (h *BlockHeader) Deserialize(r wire.Reader) error {
	version, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	parents := make([]primitives.H256, n)
	for i := range parents {
		if err := wire.ReadFixedHash(r, parents[i][:]); err != nil {
			return err
		}
	}
	var merkle, witnessMerkle primitives.H256
	if err := wire.ReadFixedHash(r, merkle[:]); err != nil {
		return err
	}
	if err := wire.ReadFixedHash(r, witnessMerkle[:]); err != nil {
		return err
	}
	t, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	bits, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	nonce, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}

	h.Version = version
	h.PreviousHeaderHash = parents
	h.MerkleRootHash = merkle
	h.WitnessMerkleRootHash = witnessMerkle
	h.Time = t
	h.Bits = bits
	h.Nonce = nonce
	return nil
}

// Hash computes double-SHA256 of the header's serialization.
func (h *BlockHeader) Hash() primitives.H256 {
	var buf bytes.Buffer
	_ = h.Serialize(&buf, wire.FlagNone)
	return primitives.DoubleSHA256(buf.Bytes())
}

// Block is a header plus its transaction list. The first transaction must
// be the coinbase; header.MerkleRootHash / WitnessMerkleRootHash must match
// the recomputed Merkle roots of the transaction hashes / witness hashes.
type Block struct {
	Header       BlockHeader
	Transactions []PaymentTransaction
}

// Serialize writes the block: header then varint-prefixed transaction list.
func (b *Block) Serialize(w wire.Writer, flags wire.SerializeFlags) error {
	if err := b.Header.Serialize(w, flags); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for i := range b.Transactions {
		if err := b.Transactions[i].Serialize(w, flags); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads a block written by Serialize.
func (b *Block) Deserialize(r wire.Reader) error {
	if err := b.Header.Deserialize(r); err != nil {
		return err
	}
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	txs := make([]PaymentTransaction, n)
	for i := range txs {
		if err := txs[i].Deserialize(r); err != nil {
			return err
		}
	}
	b.Transactions = txs
	return nil
}

// ComputeMerkleRoot recomputes the Merkle root over the block's transaction
// hashes.
func (b *Block) ComputeMerkleRoot() primitives.H256 {
	hashes := make([]primitives.H256, len(b.Transactions))
	for i := range b.Transactions {
		hashes[i] = b.Transactions[i].Hash()
	}
	return MerkleRoot(hashes)
}

// ComputeWitnessMerkleRoot recomputes the witness Merkle root: the root of
// (ZeroH256, witness_hash(tx1), ..., witness_hash(txn)).
func (b *Block) ComputeWitnessMerkleRoot() primitives.H256 {
	hashes := make([]primitives.H256, len(b.Transactions)+1)
	hashes[0] = primitives.ZeroH256
	for i := range b.Transactions {
		hashes[i+1] = b.Transactions[i].WitnessHash()
	}
	return MerkleRoot(hashes)
}
