// Package wire implements the deterministic serialization codec shared by
// every on-wire and on-disk structure in this module: fixed-width little
// endian integers, compact-varint length prefixes, and the witness-flag
// option that toggles SegWit-style transaction serialization.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// SerializeFlags toggles optional parts of an artifact's wire encoding.
type SerializeFlags uint8

const (
	// FlagNone serializes without any optional data.
	FlagNone SerializeFlags = 0

	// FlagWitness includes each transaction input's witness stack in the
	// encoding, using the marker/flag SegWit convention.
	FlagWitness SerializeFlags = 1 << 0
)

// Has reports whether f includes flag.
func (f SerializeFlags) Has(flag SerializeFlags) bool {
	return f&flag != 0
}

// CodecError is the error taxonomy for malformed or truncated wire data.
type CodecError struct {
	Kind CodecErrorKind
	Msg  string
}

// CodecErrorKind enumerates the ways decoding can fail.
type CodecErrorKind int

const (
	// UnexpectedEnd means the reader ran out of bytes mid-structure.
	UnexpectedEnd CodecErrorKind = iota
	// MalformedData means the bytes present don't encode a valid value
	// (a non-canonical varint, or a var-bytes length over MaxVarBytesLen).
	MalformedData
	// ReadMalformed means the underlying reader returned a non-EOF error.
	ReadMalformed
)

func (e *CodecError) Error() string {
	return e.Msg
}

func newCodecErr(kind CodecErrorKind, msg string) *CodecError {
	return &CodecError{Kind: kind, Msg: msg}
}

// wrapReadErr wraps an io error observed while reading a fixed-size
// field into the codec's own error taxonomy.
func wrapReadErr(err error, context string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newCodecErr(UnexpectedEnd, "wire: unexpected end reading "+context)
	}
	return newCodecErr(ReadMalformed, "wire: read error in "+context+": "+err.Error())
}

// Writer is the subset of io.Writer the codec writes to; kept as an alias so
// call sites read like the rest of the package.
type Writer = io.Writer

// Reader is the subset of io.Reader the codec reads from.
type Reader = io.Reader

// Serializable is implemented by every wire/disk structure in this module.
type Serializable interface {
	Serialize(w Writer, flags SerializeFlags) error
	Deserialize(r Reader) error
}

// WriteUint8 writes a single byte.
func WriteUint8(w Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint8 reads a single byte.
func ReadUint8(r Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapReadErr(err, "uint8")
	}
	return b[0], nil
}

// WriteUint16 writes a little-endian uint16.
func WriteUint16(w Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint16 reads a little-endian uint16.
func ReadUint16(r Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapReadErr(err, "uint16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// WriteUint32 writes a little-endian uint32.
func WriteUint32(w Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint32 reads a little-endian uint32.
func ReadUint32(r Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapReadErr(err, "uint32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// WriteUint64 writes a little-endian uint64.
func WriteUint64(w Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint64 reads a little-endian uint64.
func ReadUint64(r Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapReadErr(err, "uint64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// WriteInt32 writes a little-endian int32.
func WriteInt32(w Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

// ReadInt32 reads a little-endian int32.
func ReadInt32(r Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

// WriteVarInt writes a compact variable-length integer: a single byte for
// values < 0xfd, a 0xfd prefix + 2 bytes for values that fit in uint16, a
// 0xfe prefix + 4 bytes for uint32, and a 0xff prefix + 8 bytes otherwise.
func WriteVarInt(w Writer, v uint64) error {
	switch {
	case v < 0xfd:
		return WriteUint8(w, uint8(v))
	case v <= 0xffff:
		if err := WriteUint8(w, 0xfd); err != nil {
			return err
		}
		return WriteUint16(w, uint16(v))
	case v <= 0xffffffff:
		if err := WriteUint8(w, 0xfe); err != nil {
			return err
		}
		return WriteUint32(w, uint32(v))
	default:
		if err := WriteUint8(w, 0xff); err != nil {
			return err
		}
		return WriteUint64(w, v)
	}
}

// ReadVarInt reads a compact variable-length integer written by WriteVarInt.
func ReadVarInt(r Reader) (uint64, error) {
	prefix, err := ReadUint8(r)
	if err != nil {
		return 0, err
	}
	switch prefix {
	case 0xfd:
		v, err := ReadUint16(r)
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, newCodecErr(MalformedData, "wire: non-canonical varint (16-bit)")
		}
		return uint64(v), nil
	case 0xfe:
		v, err := ReadUint32(r)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, newCodecErr(MalformedData, "wire: non-canonical varint (32-bit)")
		}
		return uint64(v), nil
	case 0xff:
		v, err := ReadUint64(r)
		if err != nil {
			return 0, err
		}
		if v <= 0xffffffff {
			return 0, newCodecErr(MalformedData, "wire: non-canonical varint (64-bit)")
		}
		return v, nil
	default:
		return uint64(prefix), nil
	}
}

// VarIntSize returns the number of bytes WriteVarInt would emit for v.
func VarIntSize(v uint64) int {
	switch {
	case v < 0xfd:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// WriteVarBytes writes a length-prefixed byte slice.
func WriteVarBytes(w Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// MaxVarBytesLen bounds how large a single varint-prefixed byte string this
// codec will allocate for while decoding, guarding against a hostile length
// prefix causing an out-of-memory allocation.
const MaxVarBytesLen = 32 * 1024 * 1024

// ReadVarBytes reads a length-prefixed byte slice written by WriteVarBytes.
func ReadVarBytes(r Reader) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > MaxVarBytesLen {
		return nil, newCodecErr(MalformedData, "wire: var bytes length exceeds maximum")
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapReadErr(err, "var bytes payload")
		}
	}
	return buf, nil
}

// WriteFixedHash writes a fixed-width hash with no length prefix.
func WriteFixedHash(w Writer, h []byte) error {
	_, err := w.Write(h)
	return err
}

// ReadFixedHash reads exactly len(h) bytes into h.
func ReadFixedHash(r Reader, h []byte) error {
	if _, err := io.ReadFull(r, h); err != nil {
		return wrapReadErr(err, "fixed hash")
	}
	return nil
}
