package keys

import (
	"testing"

	"github.com/decred/dcrd/bech32"
	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/primitives"
)

func TestNewKeyPairRoundTripsThroughPrivateBytes(t *testing.T) {
	key, err := NewKeyPair("mainnet")
	require.NoError(t, err)

	raw := key.Private.Serialize()
	reloaded := KeyPairFromPrivate("mainnet", raw)
	require.Equal(t, key.PubKeyHash160(), reloaded.PubKeyHash160())
}

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	key, err := NewKeyPair("mainnet")
	require.NoError(t, err)
	addr := key.Address()

	encoded, err := EncodeAddress(addr)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr.Hash, decoded.Hash)
	require.Equal(t, addr.Network, decoded.Network)
	require.Equal(t, AddressP2PKH, decoded.Kind)
}

func TestEncodeAddressUsesNetworkSpecificPrefix(t *testing.T) {
	var hash primitives.H160
	hash[0] = 7

	mainnet, err := EncodeAddress(Address{Network: "mainnet", Kind: AddressP2PKH, Hash: hash})
	require.NoError(t, err)
	require.True(t, len(mainnet) > 2 && mainnet[:2] == "rh")

	testnet, err := EncodeAddress(Address{Network: "testnet", Kind: AddressP2SH, Hash: hash})
	require.NoError(t, err)
	require.True(t, len(testnet) > 3 && testnet[:3] == "trh")
}

func TestDecodeAddressRejectsUnknownWitnessVersion(t *testing.T) {
	var hash primitives.H160
	addr := Address{Network: "mainnet", Kind: AddressP2PKH, Hash: hash}
	encoded, err := EncodeAddress(addr)
	require.NoError(t, err)

	_, err = DecodeAddress(encoded)
	require.NoError(t, err)

	converted, err := bech32.ConvertBits(hash[:], 8, 5, true)
	require.NoError(t, err)
	versionOne, err := bech32.Encode("rh", append([]byte{1}, converted...))
	require.NoError(t, err)
	_, err = DecodeAddress(versionOne)
	require.Error(t, err)

	_, err = DecodeAddress("not-a-bech32-string")
	require.Error(t, err)
}

func TestWalletFindByPubKeyHash(t *testing.T) {
	w := NewWallet()
	require.True(t, w.Empty())

	key, err := NewKeyPair("mainnet")
	require.NoError(t, err)
	w.AddKey(key)
	require.False(t, w.Empty())

	found, ok := w.FindByPubKeyHash(key.PubKeyHash160())
	require.True(t, ok)
	require.Equal(t, key, found)

	var other primitives.H160
	other[0] = 0xff
	_, ok = w.FindByPubKeyHash(other)
	require.False(t, ok)
}
