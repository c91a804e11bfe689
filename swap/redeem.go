package swap

import (
	"fmt"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/script"
)

// Redeem spends a counterparty's funded contract using the revealed secret,
// paying the contract's value to a freshly generated key, per spec.md
// §4.10's redeem(contract_bytes, raw_contract_tx, secret).
func (p *Swapper) Redeem(contractScript []byte, rawContractTx *chain.PaymentTransaction, secret []byte) (*chain.PaymentTransaction, error) {
	audited, err := Audit(contractScript, rawContractTx)
	if err != nil {
		return nil, err
	}

	unlockKey, ok := p.wallet.FindByPubKeyHash(audited.RecipientHash160)
	if !ok {
		return nil, fmt.Errorf("swap: wallet has no key matching contract recipient")
	}
	payout, err := keys.NewKeyPair(p.network)
	if err != nil {
		return nil, fmt.Errorf("swap: generating payout key: %w", err)
	}
	p.wallet.AddKey(payout)

	tx := &chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.OutPoint{Hash: rawContractTx.Hash(), Index: uint32(audited.OutputIndex)},
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        audited.Value,
			ScriptPubKey: script.BuildP2WPKH(payout.PubKeyHash160()),
		}},
		LockTime: uint32(audited.LockTime),
	}

	signed, err := script.SignInput(tx, 0, audited.Value, contractScript, unlockKey.Private, script.SigVersionWitnessV0, script.SighashAll)
	if err != nil {
		return nil, err
	}
	tx.Inputs[0].ScriptWitness = append(signed.Witness, secret, []byte{0x01}, contractScript)

	if _, err := p.acceptor.AcceptTransaction(tx).Wait(); err != nil {
		return nil, fmt.Errorf("swap: redeem transaction rejected: %w", err)
	}
	p.broadcast.Broadcast(tx)
	return tx, nil
}

// Refund reclaims a contract's value after its locktime has passed, for a
// contract this participant initiated. The payout destination is a freshly
// generated key, mirroring Redeem — the original implementation left this
// path a TODO and did not specify one.
func (p *Swapper) Refund(contractScript []byte, rawContractTx *chain.PaymentTransaction) (*chain.PaymentTransaction, error) {
	audited, err := Audit(contractScript, rawContractTx)
	if err != nil {
		return nil, err
	}

	unlockKey, ok := p.wallet.FindByPubKeyHash(audited.RefundHash160)
	if !ok {
		return nil, fmt.Errorf("swap: wallet has no key matching contract refund address")
	}
	payout, err := keys.NewKeyPair(p.network)
	if err != nil {
		return nil, fmt.Errorf("swap: generating payout key: %w", err)
	}
	p.wallet.AddKey(payout)

	tx := &chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.OutPoint{Hash: rawContractTx.Hash(), Index: uint32(audited.OutputIndex)},
			Sequence:       0, // below FinalSequence: enables lock_time
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        audited.Value,
			ScriptPubKey: script.BuildP2WPKH(payout.PubKeyHash160()),
		}},
		LockTime: uint32(audited.LockTime),
	}

	signed, err := script.SignInput(tx, 0, audited.Value, contractScript, unlockKey.Private, script.SigVersionWitnessV0, script.SighashAll)
	if err != nil {
		return nil, err
	}
	tx.Inputs[0].ScriptWitness = append(signed.Witness, []byte{0x00}, contractScript)

	if _, err := p.acceptor.AcceptTransaction(tx).Wait(); err != nil {
		return nil, fmt.Errorf("swap: refund transaction rejected: %w", err)
	}
	p.broadcast.Broadcast(tx)
	return tx, nil
}
