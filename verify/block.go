package verify

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

// CheckBlockSize bounds block's witness-serialized size, shared between
// BlockVerifier's pre-verification pass and BlockSerializedSize's
// contextual re-check (spec.md §4.5 lists the bound in both stages).
func CheckBlockSize(block *chain.Block) error {
	var buf bytes.Buffer
	_ = block.Serialize(&buf, wire.FlagWitness)
	size := buf.Len()
	if size < params.MinBlockSize || size > params.MaxBlockSize {
		return ErrSize
	}
	return nil
}

// CheckBlock runs BlockVerifier's context-free checks: non-empty, a single
// leading coinbase, size bounds, Merkle root and witness Merkle root
// matching the recomputed values, and no duplicate transaction hashes.
// TransactionVerifier's per-tx checks are not run here; ChainVerifier.Check
// composes both.
func CheckBlock(block *chain.Block) error {
	if len(block.Transactions) == 0 {
		return ErrEmpty
	}
	if !block.Transactions[0].IsCoinbase() {
		return ErrNotCoinbase
	}
	for i := 1; i < len(block.Transactions); i++ {
		if block.Transactions[i].IsCoinbase() {
			return ErrUnexpectedCoinbase
		}
	}

	if err := CheckBlockSize(block); err != nil {
		return err
	}

	if block.Header.MerkleRootHash != block.ComputeMerkleRoot() {
		return ErrMerkleRoot
	}
	if block.Header.WitnessMerkleRootHash != block.ComputeWitnessMerkleRoot() {
		return ErrWitnessMerkleCommitmentMismatch
	}

	seen := make(map[primitives.H256]struct{}, len(block.Transactions))
	for i := range block.Transactions {
		h := block.Transactions[i].Hash()
		if _, dup := seen[h]; dup {
			return ErrDuplicateTransaction
		}
		seen[h] = struct{}{}
	}
	return nil
}

// Check is ChainVerifier's pre-verification entry point: HeaderVerifier,
// BlockVerifier, then TransactionVerifier for every member transaction.
// Both stages must pass before accept.go's contextual ChainAcceptor runs.
func Check(block *chain.Block) error {
	if err := CheckHeader(&block.Header); err != nil {
		return err
	}
	if err := CheckBlock(block); err != nil {
		return err
	}
	for i := range block.Transactions {
		if err := CheckTransaction(&block.Transactions[i]); err != nil {
			return err
		}
	}
	return nil
}
