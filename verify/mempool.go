package verify

import "github.com/pandoraboxchain/rustheus/chain"

// VerifyMempoolTransaction runs a standalone transaction (not yet part of
// any block) through TransactionVerifier's pre-verification followed by
// TransactionAcceptor's contextual checks against view at height, the
// `verify_mempool_transaction(provider, best_height, 0, tx)` call spec.md
// §4.6's Acceptor makes before admitting a transaction to the pool.
func VerifyMempoolTransaction(tx *chain.IndexedTransaction, view OutputView, height uint32) (uint64, error) {
	if err := CheckTransaction(&tx.Transaction); err != nil {
		return 0, err
	}
	return TransactionAcceptor(tx, view, height)
}
