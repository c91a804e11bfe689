package swap

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/keys"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/txhelper"
	"github.com/pandoraboxchain/rustheus/worker"
)

func sha256OfScript(contractScript []byte) primitives.H256 {
	sum := sha256.Sum256(contractScript)
	var h primitives.H256
	copy(h[:], sum[:])
	return h
}

type fakeAcceptor struct {
	pool *worker.Pool
	err  error
}

func (a *fakeAcceptor) AcceptTransaction(tx *chain.PaymentTransaction) *worker.Future[struct{}] {
	return worker.SubmitFuture(a.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.err
	})
}

type fakeBroadcaster struct {
	sent []*chain.PaymentTransaction
}

func (b *fakeBroadcaster) Broadcast(tx *chain.PaymentTransaction) {
	b.sent = append(b.sent, tx)
}

type fakeSource struct {
	outputs map[chain.OutPoint]chain.TransactionOutput
}

func (s *fakeSource) TransactionOutput(op chain.OutPoint) (chain.TransactionOutput, error) {
	out, ok := s.outputs[op]
	if !ok {
		return chain.TransactionOutput{}, errors.New("swap_test: unknown outpoint")
	}
	return out, nil
}

type fundedSource struct {
	*fakeSource
	byAddr map[primitives.H160][]chain.OutPoint
	utxo   map[chain.OutPoint]*store.UTXOEntry
}

func (s *fundedSource) TransactionWithOutputAddress(addr primitives.H160) []chain.OutPoint {
	return s.byAddr[addr]
}

func (s *fundedSource) UTXO(op chain.OutPoint) (*store.UTXOEntry, bool) {
	e, ok := s.utxo[op]
	return e, ok
}

type noPending struct{}

func (noPending) IsSpent(chain.OutPoint) bool { return false }

func newTestSwapper(t *testing.T, err error) (*Swapper, *fakeBroadcaster) {
	t.Helper()
	key, genErr := keys.NewKeyPair("mainnet")
	require.NoError(t, genErr)
	wallet := keys.NewWallet()
	wallet.AddKey(key)

	op := chain.OutPoint{Hash: primitives.H256{1}, Index: 0}
	source := &fundedSource{
		fakeSource: &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{
			op: {Value: 10000, ScriptPubKey: script.BuildP2WPKH(key.PubKeyHash160())},
		}},
		byAddr: map[primitives.H160][]chain.OutPoint{key.PubKeyHash160(): {op}},
		utxo:   map[chain.OutPoint]*store.UTXOEntry{op: {Value: 10000}},
	}
	funder := txhelper.NewFunder(source, noPending{})

	workers := worker.NewPool(1)
	t.Cleanup(workers.Stop)
	acceptor := &fakeAcceptor{pool: workers, err: err}
	broadcast := &fakeBroadcaster{}

	return New(wallet, "mainnet", funder, source, acceptor, broadcast), broadcast
}

func TestInitiateFundsSignsAndBroadcasts(t *testing.T) {
	p, broadcast := newTestSwapper(t, nil)

	var them primitives.H160
	them[0] = 0x42
	contract, err := p.Initiate(them, 5000)
	require.NoError(t, err)
	require.NotEmpty(t, contract.Script)
	require.Len(t, contract.Secret, 32)
	require.Len(t, broadcast.sent, 1)

	pushes, err := script.ExtractSwapPushes(contract.Script)
	require.NoError(t, err)
	require.Equal(t, them, pushes.RecipientHash160)
}

func TestInitiatePropagatesAcceptorRejection(t *testing.T) {
	p, broadcast := newTestSwapper(t, errors.New("swap_test: rejected"))

	var them primitives.H160
	_, err := p.Initiate(them, 5000)
	require.Error(t, err)
	require.Empty(t, broadcast.sent)
}

func TestAuditRecoversContractTerms(t *testing.T) {
	var recipient, refund primitives.H160
	recipient[0] = 1
	refund[0] = 2
	var secretHash primitives.H256
	secretHash[0] = 3
	lockTime := int64(1700000000)

	contractScript := script.BuildSwapContract(recipient, refund, secretHash, lockTime)
	p2wsh := script.BuildP2WSH(sha256OfScript(contractScript))
	tx := &chain.PaymentTransaction{
		Outputs: []chain.TransactionOutput{{Value: 777, ScriptPubKey: p2wsh}},
	}

	audited, err := Audit(contractScript, tx)
	require.NoError(t, err)
	require.Equal(t, 0, audited.OutputIndex)
	require.Equal(t, uint64(777), audited.Value)
	require.Equal(t, recipient, audited.RecipientHash160)
	require.Equal(t, refund, audited.RefundHash160)
	require.Equal(t, secretHash, audited.SecretHash)
	require.Equal(t, lockTime, audited.LockTime)
}

func TestRedeemSpendsContractWithSecret(t *testing.T) {
	recipientKey, err := keys.NewKeyPair("mainnet")
	require.NoError(t, err)
	var refund primitives.H160
	refund[0] = 9
	secret := []byte("0123456789abcdef0123456789abcdef")[:32]
	secretHash := sha256OfScript(secret)
	lockTime := int64(1800000000)

	contractScript := script.BuildSwapContract(recipientKey.PubKeyHash160(), refund, secretHash, lockTime)
	p2wsh := script.BuildP2WSH(sha256OfScript(contractScript))
	contractTx := &chain.PaymentTransaction{
		Version: 1,
		Outputs: []chain.TransactionOutput{{Value: 9000, ScriptPubKey: p2wsh}},
	}

	wallet := keys.NewWallet()
	wallet.AddKey(recipientKey)
	source := &fakeSource{outputs: map[chain.OutPoint]chain.TransactionOutput{}}
	funder := txhelper.NewFunder(&fundedSource{fakeSource: source, byAddr: nil, utxo: nil}, noPending{})
	workers := worker.NewPool(1)
	defer workers.Stop()
	acceptor := &fakeAcceptor{pool: workers}
	broadcast := &fakeBroadcaster{}
	p := New(wallet, "mainnet", funder, source, acceptor, broadcast)

	redeemTx, err := p.Redeem(contractScript, contractTx, secret)
	require.NoError(t, err)
	require.Len(t, broadcast.sent, 1)
	require.Equal(t, uint64(9000), redeemTx.Outputs[0].Value)
}
