// Package txhelper implements TransactionHelper: UTXO selection (funding) and
// BIP143 witness signing for transactions the wallet originates, per
// spec.md §4.10.
package txhelper

import "fmt"

// FundErrorKind classifies why Fund could not cover a transaction's needed
// value.
type FundErrorKind int

const (
	// FundNoFunds means the wallet controls no unspent outputs at all.
	FundNoFunds FundErrorKind = iota
	// FundNotEnoughFunds means the wallet's unspent outputs sum to less
	// than the needed value.
	FundNotEnoughFunds
)

// FundError reports a funding failure, per spec.md §4.10 and §7's
// `FundError{NoFunds, NotEnoughFunds}`.
type FundError struct {
	Kind   FundErrorKind
	Needed uint64
	Have   uint64
}

func (e *FundError) Error() string {
	switch e.Kind {
	case FundNoFunds:
		return "txhelper: wallet has no funds"
	case FundNotEnoughFunds:
		return fmt.Sprintf("txhelper: not enough funds: needed %d, have %d", e.Needed, e.Have)
	default:
		return "txhelper: funding error"
	}
}

// SignErrorKind classifies why Sign could not produce a witness for an
// input.
type SignErrorKind int

const (
	// SignNoSuchPrevout means the input's previous output could not be
	// resolved.
	SignNoSuchPrevout SignErrorKind = iota
	// SignPrevoutWitnessParseError means the previous output's script is
	// not a recognizable witness program.
	SignPrevoutWitnessParseError
	// SignPrevoutWitnessVersionTooHigh means the previous output's witness
	// program version is not 0, the only version this module signs for.
	SignPrevoutWitnessVersionTooHigh
	// SignNoKeysToUnlockPrevout means the wallet holds no key matching the
	// previous output's program.
	SignNoKeysToUnlockPrevout
)

// SignError reports why signing input InputIndex failed, per spec.md §4.10
// and §7's `SignError{NoSuchPrevout, NoKeysToUnlockPrevout,
// PrevoutWitnessParseError, PrevoutWitnessVersionTooHigh}`.
type SignError struct {
	Kind       SignErrorKind
	InputIndex int
}

func (e *SignError) Error() string {
	switch e.Kind {
	case SignNoSuchPrevout:
		return fmt.Sprintf("txhelper: input %d: no such previous output", e.InputIndex)
	case SignPrevoutWitnessParseError:
		return fmt.Sprintf("txhelper: input %d: previous output is not a witness program", e.InputIndex)
	case SignPrevoutWitnessVersionTooHigh:
		return fmt.Sprintf("txhelper: input %d: witness program version too high", e.InputIndex)
	case SignNoKeysToUnlockPrevout:
		return fmt.Sprintf("txhelper: input %d: wallet has no key unlocking previous output", e.InputIndex)
	default:
		return fmt.Sprintf("txhelper: input %d: signing error", e.InputIndex)
	}
}
