// Package block classifies the physical state of a flash block and
// converts typed, sequenced records to and from its on-disk ciphertext.
//
// On-disk layout of one block:
//
//	offset 0..NonceSize-1   nonce (random for data, all-zero for deleted,
//	                        all-0xFF for erased)
//	offset NonceSize..end   AEAD(key, nonce, cleartext)
//
// where cleartext is:
//
//	1 byte  content type
//	1 byte  reserved (zero)
//	2 bytes little-endian sequence number
//	N bytes payload, zero-padded to the block's fixed payload capacity
package block

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/vaulterr"
)

// NonceSize is the length, in bytes, of the nonce prefixed to every block.
const NonceSize = 24

// KeySize is the length, in bytes, of the master key.
const KeySize = 32

const headerSize = 4 // type, reserved, sequence(2)

// ContentType distinguishes what a successfully decrypted block contains.
type ContentType byte

const (
	ContentEmpty    ContentType = 3 // allocated but carries no valid record
	ContentData     ContentType = 4 // an account record
	ContentSettings ContentType = 5 // the singleton settings record
)

// Physical is the raw physical state of a block, inferred purely from its
// bytes without reference to any key.
type Physical int

const (
	// PhysErased means every byte of the block is 0xff.
	PhysErased Physical = iota
	// PhysDeleted means the first NonceSize bytes are all zero. Nonce
	// zero is never produced by encryption, so this is unambiguous.
	PhysDeleted
	// PhysData means the block is neither erased nor deleted and must be
	// decrypted to learn more.
	PhysData
)

// Classify inspects raw block bytes and reports its physical state. It
// never touches key material and never fails.
func Classify(raw []byte) Physical {
	allFF := true
	allZeroNonce := true
	for i, b := range raw {
		if b != 0xff {
			allFF = false
		}
		if i < NonceSize && b != 0 {
			allZeroNonce = false
		}
		if !allFF && !allZeroNonce {
			break
		}
	}
	switch {
	case allFF:
		return PhysErased
	case allZeroNonce:
		return PhysDeleted
	default:
		return PhysData
	}
}

// Codec converts between records and flash blocks of a fixed size.
type Codec struct {
	blockSize       int
	payloadCapacity int
}

// NewCodec returns a Codec for blocks of blockSize bytes.
func NewCodec(blockSize int) (*Codec, error) {
	capacity := blockSize - NonceSize - secretbox.Overhead - headerSize
	if capacity <= 0 {
		return nil, fmt.Errorf("block: block size %d too small for nonce, header, and AEAD overhead", blockSize)
	}
	return &Codec{blockSize: blockSize, payloadCapacity: capacity}, nil
}

// PayloadCapacity returns the maximum payload length a record can carry in
// one block.
func (c *Codec) PayloadCapacity() int {
	return c.payloadCapacity
}

// Result is the decoded content of a successfully read data or settings
// block.
type Result struct {
	Kind     ContentType
	Sequence uint16
	Payload  []byte
}

// Read reads and classifies block n. If the block is physically erased or
// deleted, it returns (nil, phys, nil) with phys set accordingly. If the
// block looks like data but fails authentication, it returns
// (nil, PhysData, vaulterr.ErrCrypto). Otherwise it returns the decoded
// Result.
func (c *Codec) Read(p flash.Provider, n uint32, key *[KeySize]byte) (*Result, Physical, error) {
	raw := make([]byte, c.blockSize)
	if err := p.Read(n, raw); err != nil {
		return nil, 0, fmt.Errorf("block %d: %w: %v", n, vaulterr.ErrIO, err)
	}

	phys := Classify(raw)
	if phys != PhysData {
		return nil, phys, nil
	}

	var nonce [NonceSize]byte
	copy(nonce[:], raw[:NonceSize])

	cleartext, ok := secretbox.Open(nil, raw[NonceSize:], &nonce, key)
	if !ok {
		return nil, PhysData, vaulterr.ErrCrypto
	}
	defer wipe(cleartext)

	if len(cleartext) < headerSize {
		return nil, PhysData, vaulterr.ErrCrypto
	}

	kind := ContentType(cleartext[0])
	seq := binary.LittleEndian.Uint16(cleartext[2:4])

	switch kind {
	case ContentData, ContentSettings:
		payload := make([]byte, len(cleartext)-headerSize)
		copy(payload, cleartext[headerSize:])
		return &Result{Kind: kind, Sequence: seq, Payload: payload}, PhysData, nil
	case ContentEmpty:
		return &Result{Kind: kind, Sequence: seq}, PhysData, nil
	default:
		return nil, PhysData, vaulterr.ErrCrypto
	}
}

// Write encrypts and commits a record to block n. The caller must
// guarantee block n is physically erased; writing to a non-erased block
// produces an invalid block rather than returning an error, because NOR
// flash physically cannot be made to report this as a write failure.
func (c *Codec) Write(p flash.Provider, n uint32, kind ContentType, seq uint16, payload []byte, key *[KeySize]byte) error {
	if len(payload) > c.payloadCapacity {
		return fmt.Errorf("block %d: payload %d bytes exceeds capacity %d: %w", n, len(payload), c.payloadCapacity, vaulterr.ErrInvalidInput)
	}

	cleartext := make([]byte, headerSize+c.payloadCapacity)
	defer wipe(cleartext)
	cleartext[0] = byte(kind)
	cleartext[1] = 0
	binary.LittleEndian.PutUint16(cleartext[2:4], seq)
	copy(cleartext[headerSize:], payload)

	var nonce [NonceSize]byte
	if err := randomNonce(nonce[:]); err != nil {
		return fmt.Errorf("block %d: %w", n, err)
	}

	raw := make([]byte, NonceSize, c.blockSize)
	copy(raw, nonce[:])
	raw = secretbox.Seal(raw, cleartext, &nonce, key)

	if err := p.Write(n, raw); err != nil {
		return fmt.Errorf("block %d: %w: %v", n, vaulterr.ErrIO, err)
	}
	return nil
}

// Delete overwrites block n with an all-zero nonce, which Classify
// reports as deleted.
func Delete(p flash.Provider, n uint32, blockSize int) error {
	raw := make([]byte, blockSize)
	if err := p.Write(n, raw); err != nil {
		return fmt.Errorf("block %d: %w: %v", n, vaulterr.ErrIO, err)
	}
	return nil
}

// randomNonce draws a random nonce, retrying the vanishingly unlikely
// all-zero and all-0xff cases so a nonce is never mistaken for a deleted
// or erased block.
func randomNonce(buf []byte) error {
	for {
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("%w: %v", vaulterr.ErrIO, err)
		}
		if !isAllZero(buf) && !isAllFF(buf) {
			return nil
		}
	}
}

func isAllZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

func isAllFF(b []byte) bool {
	for _, x := range b {
		if x != 0xff {
			return false
		}
	}
	return true
}

// wipe zeroes a sensitive scratch buffer before it is released.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
