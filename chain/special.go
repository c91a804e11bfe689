package chain

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// SpecialKind names the six non-payment transaction variants. Each variant
// below is its own struct with its own Serialize/Deserialize; nothing in
// this package writes or reads a SpecialKind tag, so there is no single
// tag-dispatched codec over the variants. PenaltyTransaction,
// CommitRandomTransaction and SplitRandomTransaction also have a Hash
// method; the other three do not. Verification rules for these variants
// are out of scope (spec.md §9).
type SpecialKind uint8

const (
	// KindPenalty double-spend-proof transaction: references the set of
	// conflicting transaction hashes it penalizes.
	KindPenalty SpecialKind = iota
	// KindCommitRandom commits to a randomness contribution without
	// revealing it yet.
	KindCommitRandom
	// KindRevealRandom reveals the randomness committed to by an earlier
	// commit-random transaction.
	KindRevealRandom
	// KindPublicKey announces a newly generated public key at a given
	// index in the node's key rotation.
	KindPublicKey
	// KindPrivateKey reveals a previously announced public key's private
	// counterpart, e.g. to prove key compromise/rotation.
	KindPrivateKey
	// KindSplitRandom references a randomness value split into pieces
	// across several transactions.
	KindSplitRandom
)

// PenaltyTransaction names the transactions a penalty accuses of
// double-spending.
type PenaltyTransaction struct {
	Version   int32
	Conflicts []primitives.H256
}

// CommitRandomTransaction commits to a randomness contribution: an opaque
// sequence of u32 words (the commitment) plus the index of the public key
// used to later verify the reveal.
type CommitRandomTransaction struct {
	Version      int32
	Random       []uint32
	PubkeyIndex  uint16
}

// RevealRandomTransaction reveals the private key used to produce an
// earlier commitment, identified by its hash.
type RevealRandomTransaction struct {
	Version    int32
	CommitHash primitives.H256
	Key        []byte // serialized private key (WIF-equivalent raw form)
}

// PublicKeyTransaction announces a newly generated public key.
type PublicKeyTransaction struct {
	Version         int32
	GeneratedPubkey []byte
	PubkeyIndex     uint8
}

// PrivateKeyTransaction reveals a previously announced public key's private
// counterpart.
type PrivateKeyTransaction struct {
	Version int32
	Key     []byte
}

// SplitRandomTransaction references a randomness value split into pieces.
type SplitRandomTransaction struct {
	Version     int32
	PubkeyIndex uint8
	Pieces      uint32
}

func (tx *PenaltyTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, uint64(len(tx.Conflicts))); err != nil {
		return err
	}
	for _, h := range tx.Conflicts {
		if err := wire.WriteFixedHash(w, h[:]); err != nil {
			return err
		}
	}
	return nil
}

func (tx *PenaltyTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	conflicts := make([]primitives.H256, n)
	for i := range conflicts {
		if err := wire.ReadFixedHash(r, conflicts[i][:]); err != nil {
			return err
		}
	}
	tx.Version = v
	tx.Conflicts = conflicts
	return nil
}

// Hash computes double-SHA256 of the transaction's serialization.
func (tx *PenaltyTransaction) Hash() primitives.H256 {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf, wire.FlagNone)
	return primitives.DoubleSHA256(buf.Bytes())
}

func (tx *CommitRandomTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, uint64(len(tx.Random))); err != nil {
		return err
	}
	for _, v := range tx.Random {
		if err := wire.WriteUint32(w, v); err != nil {
			return err
		}
	}
	return wire.WriteUint16(w, tx.PubkeyIndex)
}

func (tx *CommitRandomTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}
	random := make([]uint32, n)
	for i := range random {
		word, err := wire.ReadUint32(r)
		if err != nil {
			return err
		}
		random[i] = word
	}
	idx, err := wire.ReadUint16(r)
	if err != nil {
		return err
	}
	tx.Version = v
	tx.Random = random
	tx.PubkeyIndex = idx
	return nil
}

// Hash computes double-SHA256 of the transaction's serialization.
func (tx *CommitRandomTransaction) Hash() primitives.H256 {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf, wire.FlagNone)
	return primitives.DoubleSHA256(buf.Bytes())
}

// SerializedSize returns the byte length of tx's serialization.
func (tx *CommitRandomTransaction) SerializedSize() int {
	var c countingWriter
	_ = tx.Serialize(&c, wire.FlagNone)
	return c.n
}

func (tx *RevealRandomTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	if err := wire.WriteFixedHash(w, tx.CommitHash[:]); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, tx.Key)
}

func (tx *RevealRandomTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	var commitHash primitives.H256
	if err := wire.ReadFixedHash(r, commitHash[:]); err != nil {
		return err
	}
	key, err := wire.ReadVarBytes(r)
	if err != nil {
		return err
	}
	tx.Version = v
	tx.CommitHash = commitHash
	tx.Key = key
	return nil
}

func (tx *PublicKeyTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, tx.GeneratedPubkey); err != nil {
		return err
	}
	return wire.WriteUint8(w, tx.PubkeyIndex)
}

func (tx *PublicKeyTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	pub, err := wire.ReadVarBytes(r)
	if err != nil {
		return err
	}
	idx, err := wire.ReadUint8(r)
	if err != nil {
		return err
	}
	tx.Version = v
	tx.GeneratedPubkey = pub
	tx.PubkeyIndex = idx
	return nil
}

func (tx *PrivateKeyTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, tx.Key)
}

func (tx *PrivateKeyTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	key, err := wire.ReadVarBytes(r)
	if err != nil {
		return err
	}
	tx.Version = v
	tx.Key = key
	return nil
}

func (tx *SplitRandomTransaction) Serialize(w wire.Writer, _ wire.SerializeFlags) error {
	if err := wire.WriteInt32(w, tx.Version); err != nil {
		return err
	}
	if err := wire.WriteUint8(w, tx.PubkeyIndex); err != nil {
		return err
	}
	return wire.WriteUint32(w, tx.Pieces)
}

func (tx *SplitRandomTransaction) Deserialize(r wire.Reader) error {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return err
	}
	idx, err := wire.ReadUint8(r)
	if err != nil {
		return err
	}
	pieces, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	tx.Version = v
	tx.PubkeyIndex = idx
	tx.Pieces = pieces
	return nil
}

// Hash computes double-SHA256 of the transaction's serialization.
func (tx *SplitRandomTransaction) Hash() primitives.H256 {
	var buf bytes.Buffer
	_ = tx.Serialize(&buf, wire.FlagNone)
	return primitives.DoubleSHA256(buf.Bytes())
}
