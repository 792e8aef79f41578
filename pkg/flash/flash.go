// Package flash abstracts the raw NOR flash device the vault is stored on:
// fixed-size blocks, individually readable, erasable only in fixed-size
// groups. Nothing above this package knows whether the backing store is a
// real chip, a file, or memory.
package flash

import "fmt"

// Provider is the contract every backing store must satisfy. A Write
// requires the target block to already be physically erased -- NOR flash
// can only clear bits via a dedicated erase operation, so a Write that
// lands on a non-erased block silently corrupts it into something the
// block layer will classify as invalid.
type Provider interface {
	// BlockCount returns the total number of blocks the device exposes.
	BlockCount() uint32

	// BlockSize returns the size, in bytes, of one block.
	BlockSize() int

	// EraseGroupSize returns the erase-group size in blocks. All erase
	// requests must be aligned to, and a multiple of, this size.
	EraseGroupSize() uint32

	// Read reads block n into buf, which must be BlockSize() bytes.
	Read(n uint32, buf []byte) error

	// Write writes buf, which must be BlockSize() bytes, to block n. The
	// caller must guarantee the block is erased, or that the write is a
	// legal delete (zeroing a nonce prefix; NOR flash permits clearing
	// bits that are already programmed to one).
	Write(n uint32, buf []byte) error

	// Erase erases the n blocks starting at index, both of which must be
	// multiples of EraseGroupSize().
	Erase(index, n uint32) error
}

// BoundsError reports an access outside the device's block range.
type BoundsError struct {
	Index, Count uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("flash: block %d out of range [0, %d)", e.Index, e.Count)
}

// AlignmentError reports an erase request that doesn't respect the erase
// group size.
type AlignmentError struct {
	Index, N, EraseGroupSize uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("flash: erase(%d, %d) not aligned to erase group size %d",
		e.Index, e.N, e.EraseGroupSize)
}

func checkBounds(n, count uint32) error {
	if n >= count {
		return &BoundsError{Index: n, Count: count}
	}
	return nil
}

func checkErase(index, n, egs uint32) error {
	if index%egs != 0 || n%egs != 0 {
		return &AlignmentError{Index: index, N: n, EraseGroupSize: egs}
	}
	return nil
}
