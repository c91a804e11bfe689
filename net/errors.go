package net

import "errors"

// MessageHandler errors, per spec.md §4.8.
var (
	// ErrWrongMagic means the message's magic doesn't match this node's
	// network.
	ErrWrongMagic = errors.New("net: wrong network magic")
	// ErrInvalidChecksum means the payload's checksum doesn't match the
	// header's.
	ErrInvalidChecksum = errors.New("net: invalid checksum")
	// ErrNoCommonBlock means none of a getblocks locator's hashes resolve
	// to a block this node knows on any chain it has recorded — spec.md
	// §4.7 treats this as misbehavior and drops the request.
	ErrNoCommonBlock = errors.New("net: no common block in locator")
)
