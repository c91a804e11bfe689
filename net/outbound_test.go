package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/wire"
)

func TestOutboundWrapperBroadcastFramesMessage(t *testing.T) {
	w := NewOutboundWrapper(testMagic, 4)
	tx := &chain.PaymentTransaction{Version: 1}
	w.Broadcast(tx)

	select {
	case msg := <-w.Outbound():
		require.Equal(t, wire.CmdTx, msg.Command)
		require.Empty(t, msg.PeerID)

		header, payload, err := wire.ReadMessage(bytes.NewReader(msg.Payload))
		require.NoError(t, err)
		require.Equal(t, uint32(testMagic), header.Magic)
		require.Equal(t, wire.Checksum(payload), header.Checksum)

		var decoded chain.PaymentTransaction
		require.NoError(t, decoded.Deserialize(bytes.NewReader(payload)))
		require.Equal(t, tx.Version, decoded.Version)
	default:
		t.Fatal("expected a queued message")
	}
}

func TestOutboundWrapperBroadcastBlockFramesMessage(t *testing.T) {
	w := NewOutboundWrapper(testMagic, 4)
	block := &chain.Block{Header: chain.BlockHeader{Version: 1, PreviousHeaderHash: []primitives.H256{primitives.ZeroH256}}}
	w.BroadcastBlock(block)

	msg := <-w.Outbound()
	require.Equal(t, wire.CmdBlock, msg.Command)
}

func TestOutboundWrapperSendTargetsSinglePeer(t *testing.T) {
	w := NewOutboundWrapper(testMagic, 4)
	require.NoError(t, w.Send("peer-1", wire.CmdInv, []byte{1, 2, 3}))

	msg := <-w.Outbound()
	require.Equal(t, "peer-1", msg.PeerID)
	require.Equal(t, wire.CmdInv, msg.Command)
	require.Equal(t, []byte{1, 2, 3}, msg.Payload)
}

func TestOutboundWrapperDropsWhenQueueFull(t *testing.T) {
	w := NewOutboundWrapper(testMagic, 1)
	require.NoError(t, w.Send("peer-1", wire.CmdInv, []byte{1}))
	require.NoError(t, w.Send("peer-2", wire.CmdInv, []byte{2}))

	msg := <-w.Outbound()
	require.Equal(t, "peer-1", msg.PeerID)

	select {
	case <-w.Outbound():
		t.Fatal("expected second message to be dropped, not queued")
	default:
	}
}
