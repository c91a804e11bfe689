package net

import (
	"bytes"

	"github.com/pandoraboxchain/rustheus/accept"
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/store"
	"github.com/pandoraboxchain/rustheus/wire"
)

// Sender transmits a framed reply to whichever peer sent the message
// currently being handled.
type Sender interface {
	Send(command string, payload []byte) error
}

// MessageHandler dispatches inbound wire messages per spec.md §4.8: parse
// the fixed header, validate magic/checksum, then route by command to the
// acceptor or the responder.
type MessageHandler struct {
	magic     uint32
	store     *store.Store
	acceptor  *accept.Acceptor
	responder *Responder
}

// NewMessageHandler returns a MessageHandler for a node running with magic,
// backed by db/acceptor/responder.
func NewMessageHandler(magic uint32, db *store.Store, acceptor *accept.Acceptor, responder *Responder) *MessageHandler {
	return &MessageHandler{magic: magic, store: db, acceptor: acceptor, responder: responder}
}

// Handle parses raw as a single framed message from peer and dispatches it.
func (h *MessageHandler) Handle(peer Sender, raw []byte) error {
	header, payload, err := wire.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if header.Magic != h.magic {
		return ErrWrongMagic
	}
	if header.Checksum != wire.Checksum(payload) {
		return ErrInvalidChecksum
	}

	switch header.Command {
	case wire.CmdTx:
		return h.handleTx(payload)
	case wire.CmdBlock:
		return h.handleBlock(payload)
	case wire.CmdGetBlocks:
		return h.handleGetBlocks(peer, payload)
	case wire.CmdGetData:
		return h.handleGetData(peer, payload)
	case wire.CmdInv:
		return h.handleInv(peer, payload)
	default:
		log.Debugf("unhandled command %q", header.Command)
		return nil
	}
}

func (h *MessageHandler) handleTx(payload []byte) error {
	var tx chain.PaymentTransaction
	if err := tx.Deserialize(bytes.NewReader(payload)); err != nil {
		return err
	}
	h.acceptor.AcceptTransaction(&tx)
	return nil
}

func (h *MessageHandler) handleBlock(payload []byte) error {
	var block chain.Block
	if err := block.Deserialize(bytes.NewReader(payload)); err != nil {
		return err
	}
	h.acceptor.AcceptBlock(&block)
	return nil
}

func (h *MessageHandler) handleGetBlocks(peer Sender, payload []byte) error {
	var gb wire.GetBlocks
	if err := gb.Deserialize(bytes.NewReader(payload)); err != nil {
		return err
	}

	locator := make([]primitives.H256, len(gb.LocatorHashes))
	for i, raw := range gb.LocatorHashes {
		locator[i] = primitives.H256(raw)
	}

	hashes, err := h.responder.GetBlocks(locator, primitives.H256(gb.HashStop))
	if err != nil {
		log.Debugf("getblocks: %v, dropping request", err)
		return nil
	}

	inv := make(wire.InventoryVector, len(hashes))
	for i, hash := range hashes {
		inv[i] = wire.Inventory{Type: wire.InvBlock, Hash: [32]byte(hash)}
	}
	return sendInventory(peer, wire.CmdInv, inv)
}

func (h *MessageHandler) handleGetData(peer Sender, payload []byte) error {
	var gd wire.GetData
	if err := gd.Deserialize(bytes.NewReader(payload)); err != nil {
		return err
	}

	for _, msg := range h.responder.GetData(gd.Inventory) {
		var buf bytes.Buffer
		if err := msg.Block.Serialize(&buf, wire.FlagWitness); err != nil {
			return err
		}
		if err := peer.Send(wire.CmdBlock, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (h *MessageHandler) handleInv(peer Sender, payload []byte) error {
	var inv wire.InventoryVector
	if err := inv.Deserialize(bytes.NewReader(payload)); err != nil {
		return err
	}

	var unknown wire.InventoryVector
	for _, item := range inv {
		hash := primitives.H256(item.Hash)
		switch item.Type {
		case wire.InvTx, wire.InvWitnessTx:
			if _, ok := h.store.Transaction(hash); !ok {
				unknown = append(unknown, item)
			}
		case wire.InvBlock, wire.InvWitnessBlock:
			if _, ok := h.store.BlockNumber(hash); !ok {
				unknown = append(unknown, item)
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return sendInventory(peer, wire.CmdGetData, unknown)
}

func sendInventory(peer Sender, command string, inv wire.InventoryVector) error {
	var buf bytes.Buffer
	if err := inv.Serialize(&buf, wire.FlagNone); err != nil {
		return err
	}
	return peer.Send(command, buf.Bytes())
}
