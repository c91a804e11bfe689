// Package keys implements this node's key and address model: KeyPair
// generation/signing backed by secp256k1, Address encoding of a standard
// script's 20-byte hash, and an in-memory Wallet of KeyPairs scanned
// linearly by pubkey hash, per spec.md §3.
package keys

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v3"

	"github.com/pandoraboxchain/rustheus/primitives"
)

// AddressKind distinguishes what a 20-byte Address hash is interpreted as.
type AddressKind int

const (
	// AddressP2PKH names a pubkey hash, spent via a P2PKH/P2WPKH script.
	AddressP2PKH AddressKind = iota
	// AddressP2SH names a script hash, spent via a P2WSH-style script.
	AddressP2SH
)

// Address is a network-tagged, kind-tagged 20-byte hash.
type Address struct {
	Network string
	Kind    AddressKind
	Hash    primitives.H160
}

// KeyPair is a secp256k1 private scalar plus its derived public key and the
// network it was generated for.
type KeyPair struct {
	Network    string
	Private    *secp256k1.PrivateKey
	compressed bool
}

// NewKeyPair generates a fresh KeyPair for network using crypto/rand.
func NewKeyPair(network string) (*KeyPair, error) {
	var scalar [32]byte
	if _, err := rand.Read(scalar[:]); err != nil {
		return nil, fmt.Errorf("keys: generating private scalar: %w", err)
	}
	priv := secp256k1.PrivKeyFromBytes(scalar[:])
	return &KeyPair{Network: network, Private: priv, compressed: true}, nil
}

// KeyPairFromPrivate wraps an existing raw 32-byte private scalar, the form
// `walletload <privkey>` hands in.
func KeyPairFromPrivate(network string, raw []byte) *KeyPair {
	priv := secp256k1.PrivKeyFromBytes(raw)
	return &KeyPair{Network: network, Private: priv, compressed: true}
}

// PublicKeyCompressed returns the 33-byte compressed public key.
func (k *KeyPair) PublicKeyCompressed() []byte {
	return k.Private.PubKey().SerializeCompressed()
}

// PubKeyHash160 returns Hash160(compressed pubkey), the value a P2PKH/
// P2WPKH script locks to.
func (k *KeyPair) PubKeyHash160() primitives.H160 {
	return primitives.Hash160(k.PublicKeyCompressed())
}

// Address returns the P2PKH-style Address this key pair controls.
func (k *KeyPair) Address() Address {
	return Address{Network: k.Network, Kind: AddressP2PKH, Hash: k.PubKeyHash160()}
}

// Wallet is an ordered sequence of KeyPairs, guarded by an RWMutex the way
// the teacher guards its shared collaborators (store/pool).
type Wallet struct {
	mu   sync.RWMutex
	keys []*KeyPair
}

// NewWallet returns an empty wallet.
func NewWallet() *Wallet {
	return &Wallet{}
}

// AddKey appends key to the wallet.
func (w *Wallet) AddKey(key *KeyPair) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys = append(w.keys, key)
}

// Keys returns a snapshot copy of the wallet's key pairs.
func (w *Wallet) Keys() []*KeyPair {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*KeyPair, len(w.keys))
	copy(out, w.keys)
	return out
}

// FindByPubKeyHash scans linearly for the key pair controlling hash, per
// spec.md §3's `find_by_pubkey_hash`.
func (w *Wallet) FindByPubKeyHash(hash primitives.H160) (*KeyPair, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, k := range w.keys {
		if k.PubKeyHash160() == hash {
			return k, true
		}
	}
	return nil, false
}

// Empty reports whether the wallet has no keys.
func (w *Wallet) Empty() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.keys) == 0
}
