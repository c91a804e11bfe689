package script

import (
	"bytes"
	"errors"

	"github.com/pandoraboxchain/rustheus/primitives"
)

// Atomic-swap HTLC template errors.
var (
	ErrNotAtomicSwapScript       = errors.New("script: not an atomic swap contract")
	ErrMalformedAtomicSwapScript = errors.New("script: malformed atomic swap contract")
)

// SwapSecretSize is the only secret size this template's CLTV-redeemable
// contract accepts.
const SwapSecretSize = 32

// BuildSwapContract builds the 20-opcode atomic-swap HTLC template:
//
//	IF
//	  SIZE <secretSize> EQUALVERIFY SHA256 <secretHash> EQUALVERIFY
//	  DUP HASH160 <recipient>
//	ELSE
//	  <lockTime> CHECKLOCKTIMEVERIFY DROP
//	  DUP HASH160 <refund>
//	ENDIF
//	EQUALVERIFY CHECKSIG
func BuildSwapContract(recipient, refund primitives.H160, secretHash primitives.H256,
	lockTime int64) []byte {

	var buf bytes.Buffer
	buf.WriteByte(byte(OP_IF))
	buf.WriteByte(byte(OP_SIZE))
	buf.Write(PushInt(SwapSecretSize))
	buf.WriteByte(byte(OP_EQUALVERIFY))
	buf.WriteByte(byte(OP_SHA256))
	buf.Write(PushData(secretHash[:]))
	buf.WriteByte(byte(OP_EQUALVERIFY))
	buf.WriteByte(byte(OP_DUP))
	buf.WriteByte(byte(OP_HASH160))
	buf.Write(PushData(recipient[:]))
	buf.WriteByte(byte(OP_ELSE))
	buf.Write(PushInt(lockTime))
	buf.WriteByte(byte(OP_CHECKLOCKTIMEVERIFY))
	buf.WriteByte(byte(OP_DROP))
	buf.WriteByte(byte(OP_DUP))
	buf.WriteByte(byte(OP_HASH160))
	buf.Write(PushData(refund[:]))
	buf.WriteByte(byte(OP_ENDIF))
	buf.WriteByte(byte(OP_EQUALVERIFY))
	buf.WriteByte(byte(OP_CHECKSIG))
	return buf.Bytes()
}

// SwapPushes is the structured data extracted from an atomic-swap contract
// script's literal pushes.
type SwapPushes struct {
	RecipientHash160 primitives.H160
	RefundHash160    primitives.H160
	SecretHash       primitives.H256
	SecretSize       int64
	LockTime         int64
}

// ExtractSwapPushes parses s against the exact 20-opcode shape BuildSwapContract
// produces and, on a structural match, returns its literal pushes. Any
// deviation in opcode position, or a non-push where a push belongs, returns
// ErrNotAtomicSwapScript; a structurally matching push of the wrong size
// (or a secret size other than SwapSecretSize) returns
// ErrMalformedAtomicSwapScript.
func ExtractSwapPushes(s Script) (SwapPushes, error) {
	ops, err := Parse(s)
	if err != nil || len(ops) != 20 {
		return SwapPushes{}, ErrNotAtomicSwapScript
	}

	want := []Opcode{
		OP_IF,
		OP_SIZE, 0, OP_EQUALVERIFY, // [2] secret size push
		OP_SHA256, 0, OP_EQUALVERIFY, // [5] secret hash push
		OP_DUP, OP_HASH160, 0, // [9] recipient hash push
		OP_ELSE,
		0, OP_CHECKLOCKTIMEVERIFY, OP_DROP, // [11] locktime push
		OP_DUP, OP_HASH160, 0, // [16] refund hash push
		OP_ENDIF,
		OP_EQUALVERIFY,
		OP_CHECKSIG,
	}
	pushIdx := map[int]bool{2: true, 5: true, 9: true, 11: true, 16: true}

	for i, w := range want {
		if pushIdx[i] {
			if !ops[i].Opcode.IsPush() {
				return SwapPushes{}, ErrNotAtomicSwapScript
			}
			continue
		}
		if ops[i].Opcode != w {
			return SwapPushes{}, ErrNotAtomicSwapScript
		}
	}

	secretSize := ScriptNum(ops[2].Data)
	if secretSize != SwapSecretSize {
		return SwapPushes{}, ErrMalformedAtomicSwapScript
	}
	if len(ops[5].Data) != primitives.H256Size {
		return SwapPushes{}, ErrMalformedAtomicSwapScript
	}
	if len(ops[9].Data) != primitives.H160Size {
		return SwapPushes{}, ErrMalformedAtomicSwapScript
	}
	if len(ops[16].Data) != primitives.H160Size {
		return SwapPushes{}, ErrMalformedAtomicSwapScript
	}

	var secretHash primitives.H256
	copy(secretHash[:], ops[5].Data)
	var recipient, refund primitives.H160
	copy(recipient[:], ops[9].Data)
	copy(refund[:], ops[16].Data)

	return SwapPushes{
		RecipientHash160: recipient,
		RefundHash160:    refund,
		SecretHash:       secretHash,
		SecretSize:       secretSize,
		LockTime:         ScriptNum(ops[11].Data),
	}, nil
}
