package secret

import (
	"encoding/binary"
	"fmt"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/seqnum"
	"github.com/sunela/vault/pkg/vaulterr"
)

// headerSize is the size reserved for the generation header at the start
// of a pad block: a 16-bit sequence number, padded out to a full Size-byte
// slot the same way the original firmware reserves a whole
// MASTER_SECRET_BYTES-sized header even though only two bytes are used.
const headerSize = Size

// entrySize is the size of one (id, pad) slot within a pad block.
const entrySize = 2 * Size

// Region is the pad storage area: a block range reserved for PIN pads,
// organized into one generation per erase group so that replacing a
// generation never disturbs its neighbours. Each generation's content
// lives in the first block of its erase group; the remaining blocks in
// the group exist only so the generation can be erased as a unit.
type Region struct {
	p               flash.Provider
	start           uint32
	blocksPerGen    uint32
	generationCount uint32
}

// OpenRegion describes a pad region of totalBlocks blocks starting at
// startBlock. totalBlocks must be a multiple of the provider's erase
// group size.
func OpenRegion(p flash.Provider, startBlock, totalBlocks uint32) (*Region, error) {
	egs := p.EraseGroupSize()
	if totalBlocks == 0 || totalBlocks%egs != 0 {
		return nil, fmt.Errorf("secret: pad region of %d blocks is not a multiple of erase group size %d: %w",
			totalBlocks, egs, vaulterr.ErrInvalidInput)
	}
	if p.BlockSize() < headerSize+entrySize {
		return nil, fmt.Errorf("secret: block size %d too small for one pad entry: %w",
			p.BlockSize(), vaulterr.ErrInvalidInput)
	}
	return &Region{
		p:               p,
		start:           startBlock,
		blocksPerGen:    egs,
		generationCount: totalBlocks / egs,
	}, nil
}

func (r *Region) genBlock(g uint32) uint32 {
	return r.start + g*r.blocksPerGen
}

func (r *Region) readGen(g uint32) ([]byte, error) {
	buf := make([]byte, r.p.BlockSize())
	if err := r.p.Read(r.genBlock(g), buf); err != nil {
		return nil, fmt.Errorf("secret: read pad generation %d: %w: %v", g, vaulterr.ErrIO, err)
	}
	return buf, nil
}

func isErased(buf []byte) bool {
	for _, b := range buf {
		if b != 0xff {
			return false
		}
	}
	return true
}

// Find looks up the pad matching (deviceSecret, pin) across every
// generation and returns the master key it protects, recovered as
// pattern XOR pad. When the same id appears in more than one generation
// -- which happens for a brief window around a PIN change -- the entry
// with the newer sequence number wins.
func (r *Region) Find(deviceSecret *[Size]byte, pin uint32) (masterKey [Size]byte, gen uint32, seq uint16, found bool, err error) {
	pattern := masterHash(deviceSecret, pin)
	id := idHash(deviceSecret, pin)
	defer func() {
		zero(pattern[:])
		zero(id[:])
	}()

	for g := uint32(0); g < r.generationCount; g++ {
		buf, rerr := r.readGen(g)
		if rerr != nil {
			return masterKey, 0, 0, false, rerr
		}
		if isErased(buf) {
			continue
		}
		candidateSeq := binary.LittleEndian.Uint16(buf[0:2])
		for off := headerSize; off+entrySize <= len(buf); off += entrySize {
			entry := buf[off : off+entrySize]
			if !bytesEqual(entry[:Size], id[:]) {
				continue
			}
			if found && !seqnum.Newer(candidateSeq, seq) {
				continue
			}
			var key [Size]byte
			for i := 0; i < Size; i++ {
				key[i] = pattern[i] ^ entry[Size+i]
			}
			masterKey = key
			gen = g
			seq = candidateSeq
			found = true
			break
		}
	}
	return masterKey, gen, seq, found, nil
}

// Write installs a (newPin -> masterKey) pad, replacing the oldPin entry
// if one exists. currentGen is the generation that previously held
// oldPin's entry, or -1 if this is the first pad ever written (fresh
// device provisioning). It returns the generation and sequence number of
// the newly written pad.
func (r *Region) Write(deviceSecret *[Size]byte, oldPin, newPin uint32, masterKey [Size]byte, currentGen int, currentSeq uint16) (uint32, uint16, error) {
	var base []byte
	if currentGen >= 0 {
		b, err := r.readGen(uint32(currentGen))
		if err != nil {
			return 0, 0, err
		}
		base = b
	} else {
		base = make([]byte, r.p.BlockSize())
		for i := range base {
			base[i] = 0xff
		}
	}

	target, needsErase, err := r.pickTarget(currentGen)
	if err != nil {
		return 0, 0, err
	}
	if needsErase {
		if err := r.p.Erase(r.genBlock(target), r.blocksPerGen); err != nil {
			return 0, 0, fmt.Errorf("secret: erase pad generation %d: %w: %v", target, vaulterr.ErrIO, err)
		}
	}

	oldID := idHash(deviceSecret, oldPin)
	newID := idHash(deviceSecret, newPin)
	newPattern := masterHash(deviceSecret, newPin)
	var newPad [Size]byte
	for i := 0; i < Size; i++ {
		newPad[i] = newPattern[i] ^ masterKey[i]
	}
	defer func() {
		zero(oldID[:])
		zero(newID[:])
		zero(newPattern[:])
		zero(newPad[:])
	}()

	out := make([]byte, len(base))
	copy(out, base)
	newSeq := currentSeq + 1
	binary.LittleEndian.PutUint16(out[0:2], newSeq)

	if !changePad(out[headerSize:], oldID[:], newID[:], newPad[:]) {
		return 0, 0, fmt.Errorf("secret: pad generation %d has no room for a new entry: %w", target, vaulterr.ErrOutOfSpace)
	}

	if err := r.p.Write(r.genBlock(target), out); err != nil {
		return 0, 0, fmt.Errorf("secret: write pad generation %d: %w: %v", target, vaulterr.ErrIO, err)
	}

	if currentGen >= 0 && uint32(currentGen) != target {
		if err := r.p.Erase(r.genBlock(uint32(currentGen)), r.blocksPerGen); err != nil {
			return 0, 0, fmt.Errorf("secret: erase old pad generation %d: %w: %v", currentGen, vaulterr.ErrIO, err)
		}
	}

	return target, newSeq, nil
}

// pickTarget chooses a generation, other than exclude, to write the next
// pad generation into: a fully erased generation if one exists, or
// failing that the generation with the lowest sequence number (the
// oldest), which the caller must then erase.
func (r *Region) pickTarget(exclude int) (target uint32, needsErase bool, err error) {
	haveFallback := false
	var fallbackSeq uint16

	for g := uint32(0); g < r.generationCount; g++ {
		if exclude >= 0 && g == uint32(exclude) {
			continue
		}
		buf, rerr := r.readGen(g)
		if rerr != nil {
			return 0, false, rerr
		}
		if isErased(buf) {
			return g, false, nil
		}
		seq := binary.LittleEndian.Uint16(buf[0:2])
		if !haveFallback || seq < fallbackSeq {
			fallbackSeq = seq
			target = g
			haveFallback = true
		}
	}
	if !haveFallback {
		return 0, false, fmt.Errorf("secret: no pad generation available to write: %w", vaulterr.ErrOutOfSpace)
	}
	return target, true, nil
}

// changePad finds oldID's entry in buf and overwrites it with
// (newID, newPad); if no entry matches oldID, it uses the first entirely
// erased slot instead. It reports whether a slot was found.
func changePad(buf []byte, oldID, newID, newPad []byte) bool {
	var erasedOffset = -1
	for off := 0; off+entrySize <= len(buf); off += entrySize {
		entry := buf[off : off+entrySize]
		if bytesEqual(entry[:Size], oldID) {
			copy(entry[:Size], newID)
			copy(entry[Size:], newPad)
			return true
		}
		if erasedOffset < 0 && isErased(entry) {
			erasedOffset = off
		}
	}
	if erasedOffset < 0 {
		return false
	}
	entry := buf[erasedOffset : erasedOffset+entrySize]
	copy(entry[:Size], newID)
	copy(entry[Size:], newPad)
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
