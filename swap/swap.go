// Package swap implements the atomic-swap contract state machine per
// spec.md §4.10: Proposed -> Funded -> (Redeemed | Refunded), built on the
// 20-opcode HTLC template script/swap_template.go defines.
package swap

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/params"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/txhelper"
	"github.com/pandoraboxchain/rustheus/worker"
)

// contractLocktime is how far in the future initiate sets a contract's
// refund locktime: 48 hours, matching the reference atomic-swap tool this
// module's template is grounded on.
const contractLocktime = 48 * time.Hour

// Contract is a proposed or funded swap, tracked client-side: the chain
// only ever sees the P2WSH output and the redeem/refund spends of it.
type Contract struct {
	Script     []byte
	P2WSH      []byte
	Secret     []byte
	SecretHash primitives.H256
	LockTime   int64
	TxHash     primitives.H256
}

// Broadcaster announces an accepted transaction to the network. Implemented
// by net.OutboundWrapper; swap only needs the narrow capability.
type Broadcaster interface {
	Broadcast(tx *chain.PaymentTransaction)
}

// Acceptor is the subset of accept.Acceptor swap needs: submit a
// transaction and learn whether it was accepted.
type Acceptor interface {
	AcceptTransaction(tx *chain.PaymentTransaction) *worker.Future[struct{}]
}

// Swapper drives one side of a swap: it funds and signs using wallet,
// submits through acceptor, and broadcasts on success.
type Swapper struct {
	wallet     *keys.Wallet
	network    string
	funder     *txhelper.Funder
	source     txhelper.OutputSource
	acceptor   Acceptor
	broadcast  Broadcaster
}

// New returns a Swapper wired to wallet/funder/source/acceptor/broadcast.
func New(wallet *keys.Wallet, network string, funder *txhelper.Funder, source txhelper.OutputSource,
	acceptor Acceptor, broadcast Broadcaster) *Swapper {
	return &Swapper{
		wallet:    wallet,
		network:   network,
		funder:    funder,
		source:    source,
		acceptor:  acceptor,
		broadcast: broadcast,
	}
}

// Initiate draws a secret, builds and funds a contract transaction paying
// amount to P2WSH(contract) with counterparty them, and submits it, per
// spec.md §4.10's initiate(them, amount).
func (p *Swapper) Initiate(them primitives.H160, amount uint64) (*Contract, error) {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return nil, fmt.Errorf("swap: generating secret: %w", err)
	}
	secretHashRaw := sha256.Sum256(secret[:])
	secretHash, err := primitives.H256FromBytes(secretHashRaw[:])
	if err != nil {
		return nil, err
	}

	refund, err := keys.NewKeyPair(p.network)
	if err != nil {
		return nil, fmt.Errorf("swap: generating refund key: %w", err)
	}
	p.wallet.AddKey(refund)

	lockTime := time.Now().Add(contractLocktime).Unix()
	contractScript := script.BuildSwapContract(them, refund.PubKeyHash160(), secretHash, lockTime)
	scriptHash := sha256.Sum256(contractScript)
	var scriptHash256 primitives.H256
	copy(scriptHash256[:], scriptHash[:])
	p2wsh := script.BuildP2WSH(scriptHash256)

	tx := &chain.PaymentTransaction{
		Version: 1,
		Outputs: []chain.TransactionOutput{{Value: amount, ScriptPubKey: p2wsh}},
	}
	if err := p.funder.Fund(p.wallet, p.network, tx, amount); err != nil {
		return nil, err
	}
	if err := txhelper.Sign(tx, p.wallet, p.source); err != nil {
		return nil, err
	}

	if _, err := p.acceptor.AcceptTransaction(tx).Wait(); err != nil {
		return nil, fmt.Errorf("swap: contract transaction rejected: %w", err)
	}
	p.broadcast.Broadcast(tx)

	return &Contract{
		Script:     contractScript,
		P2WSH:      p2wsh,
		Secret:     secret[:],
		SecretHash: secretHash,
		LockTime:   lockTime,
	}, nil
}

// AuditedContract is the result of parsing and validating a counterparty's
// contract script against their published contract transaction, per
// spec.md §4.10's audit_contract.
type AuditedContract struct {
	OutputIndex      int
	Value            uint64
	RecipientHash160 primitives.H160
	RefundHash160    primitives.H160
	SecretHash       primitives.H256
	LockTime         int64
	LockTimeIsHeight bool
}

// Audit recomputes contractScript's P2WSH payload as a single SHA-256 of
// the script (the same hash Initiate uses; the script is not double-hashed),
// locates the matching output in rawContractTx, parses the HTLC template,
// and reports the contract's terms.
func Audit(contractScript []byte, rawContractTx *chain.PaymentTransaction) (*AuditedContract, error) {
	hash := sha256.Sum256(contractScript)
	var scriptHash primitives.H256
	copy(scriptHash[:], hash[:])
	want := script.BuildP2WSH(scriptHash)

	outputIndex := -1
	var value uint64
	for i, out := range rawContractTx.Outputs {
		if bytes.Equal(out.ScriptPubKey, want) {
			outputIndex = i
			value = out.Value
			break
		}
	}
	if outputIndex < 0 {
		return nil, fmt.Errorf("swap: no output in contract transaction pays this contract's P2WSH")
	}

	pushes, err := script.ExtractSwapPushes(contractScript)
	if err != nil {
		return nil, err
	}
	if pushes.SecretSize != script.SwapSecretSize {
		return nil, script.ErrMalformedAtomicSwapScript
	}

	return &AuditedContract{
		OutputIndex:      outputIndex,
		Value:            value,
		RecipientHash160: pushes.RecipientHash160,
		RefundHash160:    pushes.RefundHash160,
		SecretHash:       pushes.SecretHash,
		LockTime:         pushes.LockTime,
		LockTimeIsHeight: pushes.LockTime < params.LockTimeThreshold,
	}, nil
}
