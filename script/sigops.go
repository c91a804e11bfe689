package script

// MaxPubkeysPerMultiSig is the conservative sigop weight an unexecuted
// CHECKMULTISIG contributes, the same accurate-counting shortcut
// txscript.GetSigOpCount uses when it can't see the actual pubkey count.
const MaxPubkeysPerMultiSig = 20

// CountSigOps scans s for CHECKSIG-family opcodes without executing it,
// weighting OP_CHECKMULTISIG at MaxPubkeysPerMultiSig. A malformed script
// counts as zero; the caller's size/structure checks catch malformed
// scripts separately.
func CountSigOps(s Script) int {
	ops, err := Parse(s)
	if err != nil {
		return 0
	}
	count := 0
	for _, op := range ops {
		switch op.Opcode {
		case OP_CHECKSIG:
			count++
		case OP_CHECKMULTISIG:
			count += MaxPubkeysPerMultiSig
		}
	}
	return count
}
