package script

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/pandoraboxchain/rustheus/primitives"
)

// H160Len and H256Len are the two witness program lengths this module
// recognizes: a pubkey hash (P2WPKH) and a script hash (P2WSH).
const (
	H160Len = primitives.H160Size
	H256Len = primitives.H256Size
)

func sha256Sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// ScriptClass classifies a parsed script_pubkey.
type ScriptClass int

const (
	NonStandardTy ScriptClass = iota
	PubKeyHashTy
	WitnessV0PubKeyHashTy
	WitnessV0ScriptHashTy
)

func (c ScriptClass) String() string {
	switch c {
	case PubKeyHashTy:
		return "pubkeyhash"
	case WitnessV0PubKeyHashTy:
		return "witness_v0_pubkeyhash"
	case WitnessV0ScriptHashTy:
		return "witness_v0_scripthash"
	default:
		return "nonstandard"
	}
}

// BuildP2PKH builds the standard pay-to-pubkey-hash template:
// DUP HASH160 <20-byte hash> EQUALVERIFY CHECKSIG.
func BuildP2PKH(hash160 primitives.H160) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(OP_DUP))
	buf.WriteByte(byte(OP_HASH160))
	buf.Write(PushData(hash160[:]))
	buf.WriteByte(byte(OP_EQUALVERIFY))
	buf.WriteByte(byte(OP_CHECKSIG))
	return buf.Bytes()
}

// BuildP2WPKH builds the witness-v0-pubkey-hash template: OP_0 <20-byte hash>.
func BuildP2WPKH(hash160 primitives.H160) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(OP_0))
	buf.Write(PushData(hash160[:]))
	return buf.Bytes()
}

// BuildP2WSH builds the witness-v0-script-hash template: OP_0 <32-byte hash>.
func BuildP2WSH(scriptHash primitives.H256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(OP_0))
	buf.Write(PushData(scriptHash[:]))
	return buf.Bytes()
}

// WitnessProgram is the decoded form of a `OP_n <program>` witness output.
type WitnessProgram struct {
	Version int
	Program []byte
}

// ExtractWitnessProgram recognizes a script as OP_0/OP_1..16 followed by a
// single 2..40 byte data push, the shape every witness program takes.
func ExtractWitnessProgram(s Script) (WitnessProgram, bool) {
	ops, err := Parse(s)
	if err != nil || len(ops) != 2 {
		return WitnessProgram{}, false
	}
	if !ops[0].Opcode.IsSmallInt() {
		return WitnessProgram{}, false
	}
	if !ops[1].Opcode.IsPush() || len(ops[1].Data) < 2 || len(ops[1].Data) > 40 {
		return WitnessProgram{}, false
	}
	return WitnessProgram{Version: ops[0].Opcode.SmallIntValue(), Program: ops[1].Data}, true
}

func programHash160(program []byte) primitives.H160 {
	var h primitives.H160
	copy(h[:], program)
	return h
}

// ClassifyScript recognizes the standard templates this module builds.
func ClassifyScript(s Script) ScriptClass {
	if prog, ok := ExtractWitnessProgram(s); ok {
		switch {
		case prog.Version == 0 && len(prog.Program) == H160Len:
			return WitnessV0PubKeyHashTy
		case prog.Version == 0 && len(prog.Program) == H256Len:
			return WitnessV0ScriptHashTy
		}
	}
	ops, err := Parse(s)
	if err == nil && len(ops) == 5 &&
		ops[0].Opcode == OP_DUP && ops[1].Opcode == OP_HASH160 &&
		ops[2].Opcode.IsPush() && len(ops[2].Data) == H160Len &&
		ops[3].Opcode == OP_EQUALVERIFY && ops[4].Opcode == OP_CHECKSIG {
		return PubKeyHashTy
	}
	return NonStandardTy
}

// ExtractDestination returns the 20-byte address hash a standard script
// pays to, for scripts this module recognizes (P2PKH, P2WPKH). P2WSH has no
// single address hash (it locks to a script, not a key) so it is not a
// valid ExtractDestination target; callers that need its 32-byte program
// should use ExtractWitnessProgram directly.
func ExtractDestination(s Script) (primitives.H160, error) {
	switch ClassifyScript(s) {
	case PubKeyHashTy:
		ops, _ := Parse(s)
		var h primitives.H160
		copy(h[:], ops[2].Data)
		return h, nil
	case WitnessV0PubKeyHashTy:
		prog, _ := ExtractWitnessProgram(s)
		return programHash160(prog.Program), nil
	default:
		return primitives.H160{}, fmt.Errorf("script: no single-key destination for this script")
	}
}
