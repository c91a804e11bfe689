package net

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/wire"
)

// payload is anything with a wire command name and a framed body, satisfied
// by *chain.PaymentTransaction and *chain.Block.
type payload interface {
	Serialize(w wire.Writer, flags wire.SerializeFlags) error
}

// OutboundMessage is one framed message queued for delivery, optionally
// targeted at a single peer. A zero PeerID means broadcast to all peers,
// mirroring message_wrapper.rs's XorName::default() broadcast address.
type OutboundMessage struct {
	PeerID  string
	Command string
	Payload []byte
}

// OutboundWrapper queues outgoing messages onto a channel a transport layer
// drains, grounded on original_source/src/sync/src/message_wrapper.rs:
// node.Executor, node.WalletManager and swap.Swapper never touch a socket
// directly, they hand a signed transaction or block to OutboundWrapper and
// move on.
type OutboundWrapper struct {
	magic uint32
	queue chan OutboundMessage
}

// NewOutboundWrapper returns an OutboundWrapper for a node running with
// magic, queuing onto a channel of the given capacity.
func NewOutboundWrapper(magic uint32, capacity int) *OutboundWrapper {
	return &OutboundWrapper{magic: magic, queue: make(chan OutboundMessage, capacity)}
}

// Outbound returns the channel a transport layer should drain and send.
func (w *OutboundWrapper) Outbound() <-chan OutboundMessage {
	return w.queue
}

// Broadcast queues tx for delivery to every connected peer. It implements
// swap.Broadcaster.
func (w *OutboundWrapper) Broadcast(tx *chain.PaymentTransaction) {
	w.broadcastPayload(wire.CmdTx, tx)
}

// BroadcastBlock queues block for delivery to every connected peer, used by
// node.Executor after SignBlock commits a new block to the store.
func (w *OutboundWrapper) BroadcastBlock(block *chain.Block) {
	w.broadcastPayload(wire.CmdBlock, block)
}

func (w *OutboundWrapper) broadcastPayload(command string, p payload) {
	raw, err := w.frame(command, p)
	if err != nil {
		log.Errorf("outbound: framing %s: %v", command, err)
		return
	}
	w.enqueue(OutboundMessage{Command: command, Payload: raw})
}

// Send queues payload for delivery to a single peer, e.g. a getblocks/inv
// reply addressed back at whoever asked.
func (w *OutboundWrapper) Send(peerID, command string, raw []byte) error {
	w.enqueue(OutboundMessage{PeerID: peerID, Command: command, Payload: raw})
	return nil
}

func (w *OutboundWrapper) frame(command string, p payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Serialize(&buf, wire.FlagWitness); err != nil {
		return nil, err
	}
	var framed bytes.Buffer
	if err := wire.WriteMessage(&framed, w.magic, command, buf.Bytes()); err != nil {
		return nil, err
	}
	return framed.Bytes(), nil
}

func (w *OutboundWrapper) enqueue(msg OutboundMessage) {
	select {
	case w.queue <- msg:
	default:
		log.Warnf("outbound: queue full, dropping %s message", msg.Command)
	}
}
