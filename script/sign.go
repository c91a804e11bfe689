package script

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v3"
	"github.com/decred/dcrd/dcrec/secp256k1/v3/ecdsa"

	"github.com/pandoraboxchain/rustheus/chain"
)

// SignedInput is the result of signing a single transaction input: a
// witness stack for WitnessV0, or a single concatenated signature script for
// Base.
type SignedInput struct {
	Witness   [][]byte
	ScriptSig []byte
}

// SignInput produces the DER-encoded signature (appended with the sighash
// type byte) and compressed public key needed to satisfy scriptCode for the
// given input, as a witness stack (WitnessV0) or signature script (Base).
func SignInput(tx *chain.PaymentTransaction, inputIndex int, amount uint64,
	scriptCode []byte, key *secp256k1.PrivateKey, version SigVersion,
	hashType SighashType) (SignedInput, error) {

	digest, err := ComputeSighash(tx, inputIndex, amount, scriptCode, version, hashType)
	if err != nil {
		return SignedInput{}, err
	}

	sig := ecdsa.Sign(key, digest[:])
	sigBytes := append(sig.Serialize(), byte(hashType))
	pubkey := key.PubKey().SerializeCompressed()

	if version == SigVersionWitnessV0 {
		return SignedInput{Witness: [][]byte{sigBytes, pubkey}}, nil
	}

	var sigScript []byte
	sigScript = append(sigScript, PushData(sigBytes)...)
	sigScript = append(sigScript, PushData(pubkey)...)
	return SignedInput{ScriptSig: sigScript}, nil
}

// ChainChecker is a Checker backed by a single secp256k1 public key,
// suitable for verifying P2PKH/P2WPKH inputs where CHECKSIG's pubkey operand
// comes straight off the stack.
type ChainChecker struct {
	Tx         *chain.PaymentTransaction
	InputIndex int
	Amount     uint64
}

// CheckSig implements Checker by recomputing the appropriate sighash and
// verifying sig against pubkey.
func (c *ChainChecker) CheckSig(sig, pubkey, scriptCode []byte, version SigVersion) bool {
	if len(sig) < 1 {
		return false
	}
	hashType := SighashType(sig[len(sig)-1])
	derSig := sig[:len(sig)-1]

	digest, err := ComputeSighash(c.Tx, c.InputIndex, c.Amount, scriptCode, version, hashType)
	if err != nil {
		return false
	}

	pub, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	parsedSig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return parsedSig.Verify(digest[:], pub)
}
