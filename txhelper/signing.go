package txhelper

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
)

// OutputSource resolves an input's previous output, normally *store.Store.
type OutputSource interface {
	TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error)
}

// Sign fills in every input's witness stack, per spec.md §4.10: for each
// input, resolve its previous output, require a witness-v0 pubkey-hash
// program, find the wallet key controlling that hash, and produce a BIP143
// signature over the synthesized P2PKH scriptCode.
func Sign(tx *chain.PaymentTransaction, wallet *keys.Wallet, source OutputSource) error {
	for i := range tx.Inputs {
		out, err := source.TransactionOutput(tx.Inputs[i].PreviousOutput)
		if err != nil {
			return &SignError{Kind: SignNoSuchPrevout, InputIndex: i}
		}

		prog, ok := script.ExtractWitnessProgram(out.ScriptPubKey)
		if !ok || len(prog.Program) != primitives.H160Size {
			return &SignError{Kind: SignPrevoutWitnessParseError, InputIndex: i}
		}
		if prog.Version != 0 {
			return &SignError{Kind: SignPrevoutWitnessVersionTooHigh, InputIndex: i}
		}

		var hash primitives.H160
		copy(hash[:], prog.Program)
		key, ok := wallet.FindByPubKeyHash(hash)
		if !ok {
			return &SignError{Kind: SignNoKeysToUnlockPrevout, InputIndex: i}
		}

		scriptCode := script.BuildP2PKH(hash)
		signed, err := script.SignInput(tx, i, out.Value, scriptCode, key.Private, script.SigVersionWitnessV0, script.SighashAll)
		if err != nil {
			return err
		}
		tx.Inputs[i].ScriptWitness = signed.Witness
	}
	return nil
}
