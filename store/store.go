// Package store implements the content-addressed block database: blocks
// and transactions keyed by hash, a UTXO index keyed by outpoint, and an
// address-to-outpoint secondary index, per spec.md §4.3. The backing
// key-value engine is out of scope (spec.md §1); this package only
// specifies and implements the semantic operations over an in-memory
// table, guarded the way the teacher guards shared collaborators: any
// number of readers or one writer at a time.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
)

// Store errors, per spec.md §7.
var (
	ErrUnknownParent     = errors.New("store: unknown parent")
	ErrDatabaseCorrupted = errors.New("store: database corrupted")
	ErrCannotCanonize    = errors.New("store: cannot canonize")
	ErrNotCanonized      = errors.New("store: not canonized")
)

// UTXOEntry is a single UTXO row: an output's value/script plus the
// bookkeeping needed for maturity and spend checks.
type UTXOEntry struct {
	Value        uint64
	ScriptPubKey []byte
	IsCoinbase   bool
	Height       uint32
	Spent        bool
}

// txMeta is the per-transaction bookkeeping spec.md calls `transaction_meta`.
type txMeta struct {
	IsCoinbase bool
	Height     uint32
	NumOutputs int
}

// BlockOriginKind classifies a candidate header relative to the best chain.
type BlockOriginKind int

const (
	KnownBlock BlockOriginKind = iota
	CanonChain
	SideChain
	SideChainBecomingCanonChain
)

// SideChainOrigin names the blocks (ordered from just above the common
// ancestor to the candidate tip) a side-chain classification would need to
// replay in order to canonize, and the height of that common ancestor.
type SideChainOrigin struct {
	AncestorHeight uint32
	BlockHashes    []primitives.H256
}

// BlockOrigin is the result of classifying a candidate block against the
// current best chain.
type BlockOrigin struct {
	Kind   BlockOriginKind
	Height uint32          // valid when Kind == CanonChain
	Origin SideChainOrigin // valid when Kind is one of the SideChain variants
}

type blockRecord struct {
	header       chain.BlockHeader
	transactions []chain.PaymentTransaction
	height       int64 // -1 until canonized
}

// canonRecord is the undo-log entry Canonize pushes and Decanonize pops.
type canonRecord struct {
	hash          primitives.H256
	height        uint32
	addedOutputs  []chain.OutPoint
	flippedSpends []chain.OutPoint
	addressAdds   map[primitives.H160][]chain.OutPoint
}

// Store is the block database: every known block/transaction plus the
// canonical chain's UTXO and address indexes.
type Store struct {
	mu sync.RWMutex

	blocks       map[primitives.H256]*blockRecord
	heights      map[uint32]primitives.H256
	transactions map[primitives.H256]*chain.PaymentTransaction
	txMeta       map[primitives.H256]*txMeta
	txBlock      map[primitives.H256]primitives.H256
	utxo         map[chain.OutPoint]*UTXOEntry
	addressIndex map[primitives.H160]map[chain.OutPoint]struct{}

	bestHash   primitives.H256
	bestHeight uint32
	hasBest    bool

	history []canonRecord
}

// New returns an empty store with no genesis block inserted.
func New() *Store {
	return &Store{
		blocks:       make(map[primitives.H256]*blockRecord),
		heights:      make(map[uint32]primitives.H256),
		transactions: make(map[primitives.H256]*chain.PaymentTransaction),
		txMeta:       make(map[primitives.H256]*txMeta),
		txBlock:      make(map[primitives.H256]primitives.H256),
		utxo:         make(map[chain.OutPoint]*UTXOEntry),
		addressIndex: make(map[primitives.H160]map[chain.OutPoint]struct{}),
	}
}

// InitGenesis inserts and canonizes genesis if the store is empty. If the
// store already has a genesis block whose hash differs from the given one,
// initialization fails (spec.md §4.3: "incompatible genesis").
func (s *Store) InitGenesis(genesis *chain.Block) error {
	s.mu.Lock()
	empty := len(s.blocks) == 0
	s.mu.Unlock()

	if !empty {
		existing, err := s.BlockHash(0)
		if err != nil {
			return err
		}
		if existing != genesis.Header.Hash() {
			return fmt.Errorf("store: incompatible genesis: have %s, configured %s",
				existing, genesis.Header.Hash())
		}
		return nil
	}

	indexed := chain.NewIndexedBlock(genesis)
	if err := s.Insert(indexed); err != nil {
		return err
	}
	return s.Canonize(indexed.Hash())
}

// Insert writes block's header and transactions keyed by hash; it does not
// affect the canonical chain.
func (s *Store) Insert(block *chain.IndexedBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.Hash()
	if _, ok := s.blocks[hash]; ok {
		return nil // already known, per KnownBlock classification
	}

	raw := block.Raw()
	rec := &blockRecord{header: raw.Header, transactions: raw.Transactions, height: -1}
	s.blocks[hash] = rec

	for i := range raw.Transactions {
		tx := raw.Transactions[i]
		txHash := tx.Hash()
		s.transactions[txHash] = &tx
		s.txBlock[txHash] = hash
	}
	return nil
}

// BlockOrigin classifies header relative to the current best chain.
func (s *Store) BlockOrigin(header *chain.BlockHeader) (BlockOrigin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blockOriginLocked(header)
}

func (s *Store) blockOriginLocked(header *chain.BlockHeader) (BlockOrigin, error) {
	hash := header.Hash()
	if rec, ok := s.blocks[hash]; ok && rec.height >= 0 {
		return BlockOrigin{Kind: KnownBlock}, nil
	}

	parentHash := header.ParentHash()
	parentRec, ok := s.blocks[parentHash]
	if !ok {
		return BlockOrigin{}, ErrUnknownParent
	}
	if parentRec.height < 0 {
		// Parent exists but isn't canonical: this header extends a side
		// chain. Walk back to the nearest canonical ancestor.
		origin, err := s.sideChainOrigin(hash, parentHash)
		if err != nil {
			return BlockOrigin{}, err
		}
		if origin.AncestorHeight+uint32(len(origin.BlockHashes)) > s.bestHeight {
			return BlockOrigin{Kind: SideChainBecomingCanonChain, Origin: origin}, nil
		}
		return BlockOrigin{Kind: SideChain, Origin: origin}, nil
	}

	if uint32(parentRec.height) == s.bestHeight && parentHash == s.bestHash {
		return BlockOrigin{Kind: CanonChain, Height: s.bestHeight + 1}, nil
	}

	// Parent is canonical but not the tip: this starts a new side chain.
	origin := SideChainOrigin{AncestorHeight: uint32(parentRec.height), BlockHashes: []primitives.H256{hash}}
	if origin.AncestorHeight+1 > s.bestHeight {
		return BlockOrigin{Kind: SideChainBecomingCanonChain, Origin: origin}, nil
	}
	return BlockOrigin{Kind: SideChain, Origin: origin}, nil
}

// sideChainOrigin walks a chain of non-canonical blocks back to the nearest
// canonical ancestor, returning the replay list from just above that
// ancestor up to and including tipHash.
func (s *Store) sideChainOrigin(tipHash, parentHash primitives.H256) (SideChainOrigin, error) {
	hashes := []primitives.H256{tipHash}
	cur := parentHash
	for {
		rec, ok := s.blocks[cur]
		if !ok {
			return SideChainOrigin{}, ErrUnknownParent
		}
		if rec.height >= 0 {
			// reverse hashes into ancestor-to-tip order
			for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
				hashes[i], hashes[j] = hashes[j], hashes[i]
			}
			return SideChainOrigin{AncestorHeight: uint32(rec.height), BlockHashes: hashes}, nil
		}
		hashes = append(hashes, cur)
		cur = rec.header.ParentHash()
	}
}

// Canonize advances the best-chain tip to blockHash, updating UTXO and
// address indexes for its transactions.
func (s *Store) Canonize(blockHash primitives.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.blocks[blockHash]
	if !ok {
		return ErrCannotCanonize
	}

	var height uint32
	if s.hasBest {
		if rec.header.ParentHash() != s.bestHash {
			return ErrCannotCanonize
		}
		height = s.bestHeight + 1
	} else {
		height = 0
	}

	record := canonRecord{
		hash:        blockHash,
		height:      height,
		addressAdds: make(map[primitives.H160][]chain.OutPoint),
	}

	for txIdx, tx := range rec.transactions {
		txHash := tx.Hash()
		isCoinbase := txIdx == 0

		if !isCoinbase {
			for _, in := range tx.Inputs {
				entry, ok := s.utxo[in.PreviousOutput]
				if !ok || entry.Spent {
					return ErrCannotCanonize
				}
				entry.Spent = true
				record.flippedSpends = append(record.flippedSpends, in.PreviousOutput)
			}
		}

		for outIdx, out := range tx.Outputs {
			op := chain.OutPoint{Hash: txHash, Index: uint32(outIdx)}
			s.utxo[op] = &UTXOEntry{
				Value:        out.Value,
				ScriptPubKey: out.ScriptPubKey,
				IsCoinbase:   isCoinbase,
				Height:       height,
			}
			record.addedOutputs = append(record.addedOutputs, op)

			if hash, err := scriptAddressHash(out.ScriptPubKey); err == nil {
				if s.addressIndex[hash] == nil {
					s.addressIndex[hash] = make(map[chain.OutPoint]struct{})
				}
				s.addressIndex[hash][op] = struct{}{}
				record.addressAdds[hash] = append(record.addressAdds[hash], op)
			}
		}

		s.txMeta[txHash] = &txMeta{IsCoinbase: isCoinbase, Height: height, NumOutputs: len(tx.Outputs)}
	}

	rec.height = int64(height)
	s.heights[height] = blockHash
	s.bestHash = blockHash
	s.bestHeight = height
	s.hasBest = true
	s.history = append(s.history, record)

	log.Debugf("canonized block %s at height %d", blockHash, height)
	return nil
}

// Decanonize reverts the most recent Canonize call: un-spends the outputs
// it flipped, removes the outputs it added, and moves the tip back to the
// previous block.
func (s *Store) Decanonize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return ErrNotCanonized
	}
	record := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	for _, op := range record.addedOutputs {
		delete(s.utxo, op)
	}
	for hash, ops := range record.addressAdds {
		for _, op := range ops {
			delete(s.addressIndex[hash], op)
		}
		if len(s.addressIndex[hash]) == 0 {
			delete(s.addressIndex, hash)
		}
	}
	for _, op := range record.flippedSpends {
		if entry, ok := s.utxo[op]; ok {
			entry.Spent = false
		}
	}

	rec := s.blocks[record.hash]
	rec.height = -1
	for i := range rec.transactions {
		delete(s.txMeta, rec.transactions[i].Hash())
	}
	delete(s.heights, record.height)

	if record.height == 0 {
		s.hasBest = false
		s.bestHash = primitives.H256{}
		s.bestHeight = 0
		return nil
	}
	parentHash := rec.header.ParentHash()
	s.bestHash = parentHash
	s.bestHeight = record.height - 1
	return nil
}

// scriptAddressHash extracts the 20-byte address hash a standard script
// pays to, for the address index.
func scriptAddressHash(scriptPubKey []byte) (primitives.H160, error) {
	return script.ExtractDestination(scriptPubKey)
}

// BestBlock reports the current canonical tip's hash and height.
func (s *Store) BestBlock() (primitives.H256, uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasBest {
		return primitives.H256{}, 0, ErrNotCanonized
	}
	return s.bestHash, s.bestHeight, nil
}

// BlockHash returns the canonical block hash at height.
func (s *Store) BlockHash(height uint32) (primitives.H256, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.heights[height]
	if !ok {
		return primitives.H256{}, ErrNotCanonized
	}
	return hash, nil
}

// BlockHeader returns the header for hash.
func (s *Store) BlockHeader(hash primitives.H256) (chain.BlockHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.blocks[hash]
	if !ok {
		return chain.BlockHeader{}, ErrDatabaseCorrupted
	}
	return rec.header, nil
}

// BlockNumber returns the canonical height of hash, if canonized.
func (s *Store) BlockNumber(hash primitives.H256) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.blocks[hash]
	if !ok || rec.height < 0 {
		return 0, false
	}
	return uint32(rec.height), true
}

// Block returns the full block for hash.
func (s *Store) Block(hash primitives.H256) (*chain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.blocks[hash]
	if !ok {
		return nil, ErrDatabaseCorrupted
	}
	return &chain.Block{Header: rec.header, Transactions: rec.transactions}, nil
}

// Transaction returns the transaction identified by hash.
func (s *Store) Transaction(hash primitives.H256) (*chain.PaymentTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[hash]
	return tx, ok
}

// TransactionMeta reports the coinbase flag and inclusion height for hash.
func (s *Store) TransactionMeta(hash primitives.H256) (isCoinbase bool, height uint32, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.txMeta[hash]
	if !ok {
		return false, 0, false
	}
	return meta.IsCoinbase, meta.Height, true
}

// TransactionOutput returns the output at (outpoint's hash, index) from the
// transaction store, which holds every inserted block's transactions,
// canonical or not (not the UTXO index, so callers can inspect an output
// even after it's been spent).
func (s *Store) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[op.Hash]
	if !ok || int(op.Index) >= len(tx.Outputs) {
		return chain.TransactionOutput{}, ErrDatabaseCorrupted
	}
	return tx.Outputs[op.Index], nil
}

// IsSpent reports whether op is a known, spent UTXO entry; an unknown
// outpoint is reported as not spent (callers combine this with existence
// checks elsewhere, matching spec.md's layered-provider design).
func (s *Store) IsSpent(op chain.OutPoint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.utxo[op]
	return ok && entry.Spent
}

// UTXO returns the UTXO row for op, if present and unspent.
func (s *Store) UTXO(op chain.OutPoint) (*UTXOEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.utxo[op]
	if !ok || entry.Spent {
		return nil, false
	}
	return entry, true
}

// TransactionWithOutputAddress returns every outpoint whose script_pubkey
// resolves to addr.
func (s *Store) TransactionWithOutputAddress(addr primitives.H160) []chain.OutPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.addressIndex[addr]
	out := make([]chain.OutPoint, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	return out
}
