// Package vaulterr defines the sentinel error kinds surfaced by the vault
// core, so callers can branch on them with errors.Is instead of matching on
// error strings.
package vaulterr

import "errors"

var (
	// ErrNotFound is returned when no entry with the given name exists.
	ErrNotFound = errors.New("vault: entry not found")

	// ErrDuplicate is returned when creating an entry whose name already
	// exists.
	ErrDuplicate = errors.New("vault: duplicate entry name")

	// ErrInvalidInput is returned for malformed input: a field too long,
	// an entry name too long, or a record that does not fit in one block.
	ErrInvalidInput = errors.New("vault: invalid input")

	// ErrOutOfSpace is returned when no erased or reclaimable block is
	// available for a mutation.
	ErrOutOfSpace = errors.New("vault: out of space")

	// ErrIO is returned when the underlying flash provider fails a read,
	// write, or erase.
	ErrIO = errors.New("vault: flash io error")

	// ErrCrypto is returned when a block fails authentication. It is
	// never returned for a successful read of the wrong data -- a block
	// either authenticates correctly or is reported invalid.
	ErrCrypto = errors.New("vault: decryption failed")

	// ErrLocked is returned while the PIN cooldown is active.
	ErrLocked = errors.New("vault: locked out, cooldown active")

	// ErrBusy is returned when a caller (normally remote control) cannot
	// be served because another operation holds the resource.
	ErrBusy = errors.New("vault: busy")

	// ErrChanged is returned by the remote-control surface when the
	// database generation counter changes mid-response.
	ErrChanged = errors.New("vault: database changed")

	// ErrSequenceExhausted is returned when an entry has already been
	// rewritten 2^15 times. The 16-bit sequence number compares newer/older
	// modulo 2^16 (see pkg/seqnum), which only gives an unambiguous
	// ordering across half the number space; past that point a mutation
	// is refused until the entry is deleted and recreated with a fresh
	// sequence number.
	ErrSequenceExhausted = errors.New("vault: entry sequence number exhausted, delete and recreate")
)
