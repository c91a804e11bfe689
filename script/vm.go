package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pandoraboxchain/rustheus/primitives"
)

// MaxStackSize bounds the operand stack so a crafted script can't exhaust
// memory; evaluation aborts once it would be exceeded.
const MaxStackSize = 1000

// MaxScriptOps bounds the number of opcodes a single script may execute.
const MaxScriptOps = 201

// SigVersion selects which signature hash algorithm CHECKSIG uses.
type SigVersion int

const (
	// SigVersionBase is the legacy (non-witness) sighash algorithm.
	SigVersionBase SigVersion = iota
	// SigVersionWitnessV0 is the BIP143-style witness sighash algorithm.
	SigVersionWitnessV0
)

// Checker validates a single CHECKSIG/CHECKMULTISIG operation against the
// transaction context bound at construction time (input index, input
// amount, sighash version).
type Checker interface {
	CheckSig(sig, pubkey, scriptCode []byte, version SigVersion) bool
}

// VerifyFlags names optional script engine behaviors. No flags are defined,
// VerifyScript does not take a VerifyFlags value, and nothing in this
// module reads one.
type VerifyFlags uint32

// ErrScriptFailed is returned when a script leaves a falsy or empty result
// on the stack.
var ErrScriptFailed = errors.New("script: evaluation failed")

// ErrStackOverflow is returned when a script would push past MaxStackSize.
var ErrStackOverflow = errors.New("script: stack overflow")

// vm is a minimal bounded-stack evaluator supporting the opcodes this
// module's standard templates and the atomic-swap HTLC script require.
type vm struct {
	stack   [][]byte
	checker Checker
	version SigVersion
	ops     int
}

func newVM(checker Checker, version SigVersion) *vm {
	return &vm{checker: checker, version: version}
}

func (m *vm) push(b []byte) error {
	if len(m.stack) >= MaxStackSize {
		return ErrStackOverflow
	}
	m.stack = append(m.stack, b)
	return nil
}

func (m *vm) pop() ([]byte, error) {
	if len(m.stack) == 0 {
		return nil, fmt.Errorf("script: pop from empty stack")
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}

func (m *vm) top() ([]byte, error) {
	if len(m.stack) == 0 {
		return nil, fmt.Errorf("script: peek at empty stack")
	}
	return m.stack[len(m.stack)-1], nil
}

func isTruthy(b []byte) bool {
	for i, v := range b {
		if v != 0 {
			if i == len(b)-1 && v == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// execute runs s against the VM's stack, honoring IF/ELSE/ENDIF branching.
// scriptCode is the script whose signature hash CHECKSIG should compute
// against (the full script_pubkey / witness script being satisfied).
func (m *vm) execute(s Script, scriptCode []byte) error {
	type branch struct {
		executing bool
		taken     bool
	}
	var branches []branch

	shouldExec := func() bool {
		for _, b := range branches {
			if !b.executing {
				return false
			}
		}
		return true
	}

	tok := NewTokenizer(s)
	for tok.Next() {
		m.ops++
		if m.ops > MaxScriptOps {
			return fmt.Errorf("script: exceeded max op count")
		}

		op := tok.Op()

		if op == OP_IF {
			cond := false
			if shouldExec() {
				top, err := m.pop()
				if err != nil {
					return err
				}
				cond = isTruthy(top)
			}
			branches = append(branches, branch{executing: cond, taken: cond})
			continue
		}
		if op == OP_ELSE {
			if len(branches) == 0 {
				return fmt.Errorf("script: ELSE without IF")
			}
			top := &branches[len(branches)-1]
			top.executing = !top.taken
			top.taken = true
			continue
		}
		if op == OP_ENDIF {
			if len(branches) == 0 {
				return fmt.Errorf("script: ENDIF without IF")
			}
			branches = branches[:len(branches)-1]
			continue
		}
		if !shouldExec() {
			continue
		}

		if op.IsPush() {
			if err := m.push(tok.Data()); err != nil {
				return err
			}
			continue
		}
		if op.IsSmallInt() {
			if err := m.push(ScriptNumBytes(int64(op.SmallIntValue()))); err != nil {
				return err
			}
			continue
		}

		switch op {
		case OP_DUP:
			top, err := m.top()
			if err != nil {
				return err
			}
			if err := m.push(append([]byte(nil), top...)); err != nil {
				return err
			}

		case OP_DROP:
			if _, err := m.pop(); err != nil {
				return err
			}

		case OP_SIZE:
			top, err := m.top()
			if err != nil {
				return err
			}
			if err := m.push(ScriptNumBytes(int64(len(top)))); err != nil {
				return err
			}

		case OP_EQUAL, OP_EQUALVERIFY:
			a, err := m.pop()
			if err != nil {
				return err
			}
			b, err := m.pop()
			if err != nil {
				return err
			}
			eq := bytes.Equal(a, b)
			if op == OP_EQUALVERIFY {
				if !eq {
					return fmt.Errorf("script: EQUALVERIFY failed")
				}
				continue
			}
			if err := m.push(boolBytes(eq)); err != nil {
				return err
			}

		case OP_SHA256:
			top, err := m.pop()
			if err != nil {
				return err
			}
			sum := sha256Sum(top)
			if err := m.push(sum[:]); err != nil {
				return err
			}

		case OP_HASH160:
			top, err := m.pop()
			if err != nil {
				return err
			}
			h := primitives.Hash160(top)
			if err := m.push(h[:]); err != nil {
				return err
			}

		case OP_CHECKLOCKTIMEVERIFY:
			top, err := m.top()
			if err != nil {
				return err
			}
			_ = ScriptNum(top) // locktime comparison is enforced by the caller (HeaderMedianTimestamp/BlockFinality); CLTV here only validates stack shape
			if len(top) > 5 {
				return fmt.Errorf("script: CHECKLOCKTIMEVERIFY operand too large")
			}

		case OP_CHECKSIG:
			pubkey, err := m.pop()
			if err != nil {
				return err
			}
			sig, err := m.pop()
			if err != nil {
				return err
			}
			ok := m.checker != nil && m.checker.CheckSig(sig, pubkey, scriptCode, m.version)
			if err := m.push(boolBytes(ok)); err != nil {
				return err
			}

		default:
			return fmt.Errorf("script: unsupported opcode 0x%02x", byte(op))
		}
	}
	if err := tok.Err(); err != nil {
		return err
	}
	if len(branches) != 0 {
		return fmt.Errorf("script: unbalanced IF/ENDIF")
	}
	return nil
}

func boolBytes(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{}
}

// VerifyScript evaluates script_sig then script_pubkey (or, for a witness
// program, the witness stack then the witness script) and reports whether
// the combined evaluation leaves a truthy result.
func VerifyScript(scriptSig Script, scriptPubKey Script, witness [][]byte,
	checker Checker, version SigVersion) error {

	m := newVM(checker, version)

	if version == SigVersionWitnessV0 {
		for _, item := range witness {
			if err := m.push(item); err != nil {
				return err
			}
		}
		witnessScript := scriptPubKey
		if prog, ok := ExtractWitnessProgram(scriptPubKey); ok && prog.Version == 0 {
			switch {
			case len(prog.Program) == H160Len:
				// P2WPKH: the witness stack [sig, pubkey] is
				// evaluated directly against a synthesized
				// P2PKH script over the witness program.
				witnessScript = BuildP2PKH(programHash160(prog.Program))
			case len(prog.Program) == H256Len && len(witness) >= 1:
				// P2WSH: the last witness stack item is the
				// actual witness script; its hash must match
				// the witness program.
				raw, err := m.pop()
				if err != nil {
					return err
				}
				if sum := sha256Sum(raw); !bytes.Equal(sum[:], prog.Program) {
					return fmt.Errorf("script: witness script hash mismatch")
				}
				witnessScript = raw
			}
		}
		if err := m.execute(witnessScript, witnessScript); err != nil {
			return err
		}
	} else {
		if err := m.execute(scriptSig, scriptPubKey); err != nil {
			return err
		}
		if err := m.execute(scriptPubKey, scriptPubKey); err != nil {
			return err
		}
	}

	top, err := m.pop()
	if err != nil {
		return ErrScriptFailed
	}
	if !isTruthy(top) {
		return ErrScriptFailed
	}
	return nil
}
