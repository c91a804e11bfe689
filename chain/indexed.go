package chain

import "github.com/pandoraboxchain/rustheus/primitives"

// IndexedHeader caches a header's hash alongside the raw structure. It is
// created once at deserialization (or construction) time and treated as
// immutable thereafter.
type IndexedHeader struct {
	Hash   primitives.H256
	Header BlockHeader
}

// NewIndexedHeader wraps header, computing its hash once.
func NewIndexedHeader(header BlockHeader) *IndexedHeader {
	return &IndexedHeader{Hash: header.Hash(), Header: header}
}

// IndexedTransaction caches a transaction's hash alongside the raw
// structure.
type IndexedTransaction struct {
	Hash        primitives.H256
	Transaction PaymentTransaction
}

// NewIndexedTransaction wraps tx, computing its hash once.
func NewIndexedTransaction(tx PaymentTransaction) *IndexedTransaction {
	return &IndexedTransaction{Hash: tx.Hash(), Transaction: tx}
}

// IndexedBlock caches a block header's hash alongside the raw block and the
// per-transaction IndexedTransaction wrappers.
type IndexedBlock struct {
	Header       *IndexedHeader
	Transactions []*IndexedTransaction
}

// NewIndexedBlock wraps block, computing the header hash and each
// transaction's hash once.
func NewIndexedBlock(block *Block) *IndexedBlock {
	txs := make([]*IndexedTransaction, len(block.Transactions))
	for i := range block.Transactions {
		txs[i] = NewIndexedTransaction(block.Transactions[i])
	}
	return &IndexedBlock{
		Header:       NewIndexedHeader(block.Header),
		Transactions: txs,
	}
}

// Hash returns the block's hash (its header's hash).
func (b *IndexedBlock) Hash() primitives.H256 {
	return b.Header.Hash
}

// Raw reconstructs the plain Block this IndexedBlock wraps.
func (b *IndexedBlock) Raw() *Block {
	txs := make([]PaymentTransaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = tx.Transaction
	}
	return &Block{Header: b.Header.Header, Transactions: txs}
}

// TransactionByHash finds a transaction within this block by hash, returning
// its index and wrapper, or -1 and nil when the block does not contain it.
func (b *IndexedBlock) TransactionByHash(hash primitives.H256) (int, *IndexedTransaction) {
	for i, tx := range b.Transactions {
		if tx.Hash == hash {
			return i, tx
		}
	}
	return -1, nil
}
