package verify

import "github.com/pandoraboxchain/rustheus/chain"

// CheckHeader runs HeaderVerifier's context-free checks. Proof-of-work and
// future-timestamp validation are bypassed: spec.md §9 leaves open whether
// this network is proof-of-work, proof-of-stake, or still under
// development, and instructs implementers not to guess. The function exists
// so ChainVerifier.Check has a single place to wire that decision in once
// made.
func CheckHeader(header *chain.BlockHeader) error {
	return nil
}
