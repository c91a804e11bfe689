// Package primitives implements the fixed-width identifiers and the
// compact-target helpers shared by every other package in this module:
// hashes, double-SHA256, Hash160, and the compact-target encoding used by
// block headers. Varint encoding lives in package wire.
package primitives

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // matches the Hash160 scheme used throughout the dcrd/btcd family
)

// H256Size is the length in bytes of a H256 hash.
const H256Size = 32

// H160Size is the length in bytes of a H160 hash.
const H160Size = 20

// H256 is an opaque 32-byte identifier, stored internally in the same byte
// order it is hashed in. Its String method follows the reversed-hex display
// convention: the bytes are printed in reverse order, matching how block and
// transaction hashes are shown by block explorers.
type H256 [H256Size]byte

// H160 is an opaque 20-byte identifier, used for P2PKH/P2WPKH address
// hashes (a P2WSH program is a 32-byte H256).
type H160 [H160Size]byte

// ZeroH256 is the all-zero hash, used as the previous-output hash of a
// coinbase input.
var ZeroH256 = H256{}

// String returns the reversed-hex display form of the hash.
func (h H256) String() string {
	var reversed H256
	for i := 0; i < H256Size; i++ {
		reversed[i] = h[H256Size-1-i]
	}
	return hex.EncodeToString(reversed[:])
}

// Bytes returns a copy of the hash's raw bytes in storage order.
func (h H256) Bytes() []byte {
	out := make([]byte, H256Size)
	copy(out, h[:])
	return out
}

// IsZero reports whether h is the all-zero hash.
func (h H256) IsZero() bool {
	return h == ZeroH256
}

// H256FromBytes builds a H256 from a byte slice in storage order. It returns
// an error if the slice isn't exactly H256Size bytes long.
func H256FromBytes(b []byte) (H256, error) {
	var h H256
	if len(b) != H256Size {
		return h, fmt.Errorf("primitives: invalid H256 length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// H256FromReversedHex parses the reversed-hex display form (as produced by
// String) back into a H256.
func H256FromReversedHex(s string) (H256, error) {
	var h H256
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != H256Size {
		return h, fmt.Errorf("primitives: invalid H256 hex length %d", len(b))
	}
	for i := 0; i < H256Size; i++ {
		h[i] = b[H256Size-1-i]
	}
	return h, nil
}

// String returns the hex display form of the hash.
func (h H160) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash's raw bytes.
func (h H160) Bytes() []byte {
	out := make([]byte, H160Size)
	copy(out, h[:])
	return out
}

// H160FromBytes builds a H160 from a byte slice. It returns an error if the
// slice isn't exactly H160Size bytes long.
func H160FromBytes(b []byte) (H160, error) {
	var h H160
	if len(b) != H160Size {
		return h, fmt.Errorf("primitives: invalid H160 length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// DoubleSHA256 computes SHA256(SHA256(data)), the hash function used for
// transaction and block identifiers throughout this module.
func DoubleSHA256(data []byte) H256 {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return H256(second)
}

// Hash160 computes RIPEMD160(SHA256(data)), the scheme used to derive
// pubkey-hash and script-hash addresses.
func Hash160(data []byte) H160 {
	sum := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sum[:])
	var h H160
	copy(h[:], r.Sum(nil))
	return h
}
