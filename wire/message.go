package wire

import (
	"bytes"
	"crypto/sha256"
	"io"
)

// CommandSize is the fixed width of a message's NUL-padded ASCII command
// name, matching Bitcoin/Decred's wire.MessageHeader convention.
const CommandSize = 12

// HeaderSize is the fixed size of a message header: magic || command ||
// payload_length || checksum.
const HeaderSize = 4 + CommandSize + 4 + 4

// Commands this module's MessageHandler dispatches on.
const (
	CmdVersion   = "version"
	CmdVerAck    = "verack"
	CmdPing      = "ping"
	CmdPong      = "pong"
	CmdInv       = "inv"
	CmdGetData   = "getdata"
	CmdGetBlocks = "getblocks"
	CmdBlock     = "block"
	CmdTx        = "tx"
	CmdReject    = "reject"
)

// MessageHeader is the fixed 24-byte prefix of every transport message.
type MessageHeader struct {
	Magic      uint32
	Command    string
	PayloadLen uint32
	Checksum   [4]byte
}

// Checksum returns the first four bytes of double-SHA256(payload), the
// value every message header's Checksum field must equal.
func Checksum(payload []byte) [4]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	var out [4]byte
	copy(out[:], second[:4])
	return out
}

// Serialize writes the header: magic(4 LE), command(12, NUL-padded ASCII),
// payload_length(4 LE), checksum(4).
func (h *MessageHeader) Serialize(w Writer, _ SerializeFlags) error {
	if err := WriteUint32(w, h.Magic); err != nil {
		return err
	}
	var cmd [CommandSize]byte
	copy(cmd[:], h.Command)
	if _, err := w.Write(cmd[:]); err != nil {
		return err
	}
	if err := WriteUint32(w, h.PayloadLen); err != nil {
		return err
	}
	_, err := w.Write(h.Checksum[:])
	return err
}

// Deserialize reads a header written by Serialize.
func (h *MessageHeader) Deserialize(r Reader) error {
	magic, err := ReadUint32(r)
	if err != nil {
		return err
	}
	var cmd [CommandSize]byte
	if err := ReadFixedHash(r, cmd[:]); err != nil {
		return err
	}
	payloadLen, err := ReadUint32(r)
	if err != nil {
		return err
	}
	var checksum [4]byte
	if err := ReadFixedHash(r, checksum[:]); err != nil {
		return err
	}
	h.Magic = magic
	h.Command = string(bytes.TrimRight(cmd[:], "\x00"))
	h.PayloadLen = payloadLen
	h.Checksum = checksum
	return nil
}

// WriteMessage frames payload with a header (magic, command, computed
// checksum) and writes header then payload to w.
func WriteMessage(w Writer, magic uint32, command string, payload []byte) error {
	header := MessageHeader{
		Magic:      magic,
		Command:    command,
		PayloadLen: uint32(len(payload)),
		Checksum:   Checksum(payload),
	}
	if err := header.Serialize(w, FlagNone); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessage reads a header and its payload from r, per spec.md §4.8 step
// 1. It does not validate magic or checksum; callers (net.MessageHandler)
// apply those checks against their own node's magic so the error taxonomy
// stays in their package.
func ReadMessage(r Reader) (MessageHeader, []byte, error) {
	var header MessageHeader
	if err := header.Deserialize(r); err != nil {
		return MessageHeader{}, nil, err
	}
	payload := make([]byte, header.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return MessageHeader{}, nil, wrapReadErr(err, "message payload")
	}
	return header, payload, nil
}

// InvType tags the kind of item an Inventory entry names.
type InvType uint32

const (
	InvError                InvType = 0
	InvTx                   InvType = 1
	InvBlock                InvType = 2
	InvFilteredBlock        InvType = 3
	InvCompactBlock         InvType = 4
	invWitnessFlag          InvType = 0x40000000
	InvWitnessTx            InvType = InvTx | invWitnessFlag
	InvWitnessBlock         InvType = InvBlock | invWitnessFlag
	InvWitnessFilteredBlock InvType = InvFilteredBlock | invWitnessFlag
)

// Inventory names a single tx or block by type and hash, the element type
// of both the `inv` and `getdata` message payloads.
type Inventory struct {
	Type InvType
	Hash [32]byte
}

func (inv *Inventory) Serialize(w Writer) error {
	if err := WriteUint32(w, uint32(inv.Type)); err != nil {
		return err
	}
	return WriteFixedHash(w, inv.Hash[:])
}

func (inv *Inventory) Deserialize(r Reader) error {
	t, err := ReadUint32(r)
	if err != nil {
		return err
	}
	inv.Type = InvType(t)
	return ReadFixedHash(r, inv.Hash[:])
}

// InventoryVector is the varint-length-prefixed sequence of Inventory
// entries carried by `inv` and `getdata` messages.
type InventoryVector []Inventory

func (v *InventoryVector) Serialize(w Writer, _ SerializeFlags) error {
	if err := WriteVarInt(w, uint64(len(*v))); err != nil {
		return err
	}
	for i := range *v {
		if err := (*v)[i].Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

func (v *InventoryVector) Deserialize(r Reader) error {
	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	items := make(InventoryVector, n)
	for i := range items {
		if err := items[i].Deserialize(r); err != nil {
			return err
		}
	}
	*v = items
	return nil
}

// GetBlocks is the `getblocks` payload: a protocol version, a block locator
// (a varint-length sequence of candidate common-ancestor hashes, densest
// near the tip), and a stop hash (all-zero meaning "no limit").
type GetBlocks struct {
	Version       uint32
	LocatorHashes [][32]byte
	HashStop      [32]byte
}

func (g *GetBlocks) Serialize(w Writer, _ SerializeFlags) error {
	if err := WriteUint32(w, g.Version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(g.LocatorHashes))); err != nil {
		return err
	}
	for i := range g.LocatorHashes {
		if err := WriteFixedHash(w, g.LocatorHashes[i][:]); err != nil {
			return err
		}
	}
	return WriteFixedHash(w, g.HashStop[:])
}

func (g *GetBlocks) Deserialize(r Reader) error {
	version, err := ReadUint32(r)
	if err != nil {
		return err
	}
	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	locator := make([][32]byte, n)
	for i := range locator {
		if err := ReadFixedHash(r, locator[i][:]); err != nil {
			return err
		}
	}
	var stop [32]byte
	if err := ReadFixedHash(r, stop[:]); err != nil {
		return err
	}
	g.Version = version
	g.LocatorHashes = locator
	g.HashStop = stop
	return nil
}

// GetData is the `getdata` payload: a plain inventory vector.
type GetData struct {
	Inventory InventoryVector
}

func (g *GetData) Serialize(w Writer, flags SerializeFlags) error {
	return g.Inventory.Serialize(w, flags)
}

func (g *GetData) Deserialize(r Reader) error {
	return g.Inventory.Deserialize(r)
}
