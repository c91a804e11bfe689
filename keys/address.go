package keys

import (
	"fmt"

	"github.com/decred/dcrd/bech32"

	"github.com/pandoraboxchain/rustheus/primitives"
)

// hrpForNetwork maps a network name to its bech32 human-readable part,
// mirroring chaincfg.Params.Bech32HRPSegwit but keyed by this module's own
// network names rather than Bitcoin/Decred's.
func hrpForNetwork(network string) string {
	switch network {
	case "testnet":
		return "trh"
	default:
		return "rh"
	}
}

// EncodeAddress bech32-encodes addr as a witness-version-0 program, the
// string form `walletcreate`/`balance`/`transfer` print and accept.
func EncodeAddress(addr Address) (string, error) {
	if addr.Kind != AddressP2PKH && addr.Kind != AddressP2SH {
		return "", fmt.Errorf("keys: unknown address kind %d", addr.Kind)
	}
	converted, err := bech32.ConvertBits(addr.Hash[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("keys: converting address bits: %w", err)
	}
	data := append([]byte{0}, converted...)
	return bech32.Encode(hrpForNetwork(addr.Network), data)
}

// DecodeAddress parses a string produced by EncodeAddress back into an
// Address, inferring its network from the bech32 human-readable part (any
// part other than the testnet one decodes as "mainnet"). The encoding
// carries no address kind, so the returned Kind is always AddressP2PKH,
// including for a string EncodeAddress produced from an AddressP2SH.
func DecodeAddress(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("keys: decoding address: %w", err)
	}
	if len(data) == 0 {
		return Address{}, fmt.Errorf("keys: empty address payload")
	}
	version := data[0]
	if version != 0 {
		return Address{}, fmt.Errorf("keys: unsupported witness version %d", version)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("keys: converting address bits: %w", err)
	}
	if len(program) != primitives.H160Size {
		return Address{}, fmt.Errorf("keys: address program has %d bytes, want %d", len(program), primitives.H160Size)
	}

	network := "mainnet"
	if hrp == hrpForNetwork("testnet") {
		network = "testnet"
	}
	var hash primitives.H160
	copy(hash[:], program)
	return Address{Network: network, Kind: AddressP2PKH, Hash: hash}, nil
}
