// Package vault implements the account database: a log-structured,
// content-addressed collection of encrypted records living in the data
// region of a flash device. See pkg/block for the per-block codec and
// pkg/secret for the key management the vault relies on to read and
// write blocks.
package vault

import (
	"fmt"

	"github.com/sunela/vault/pkg/block"
	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/span"
	"github.com/sunela/vault/pkg/vaulterr"
)

// Stats tallies the physical state of every block in the data region.
// Open computes it; block allocation, reclamation, and mutations made
// afterwards adjust it.
type Stats struct {
	Total   uint32
	Erased  uint32
	Deleted uint32
	Empty   uint32
	Invalid uint32
	Error   uint32
	Data    uint32
	Special uint32
}

// Vault is an open account database.
type Vault struct {
	flash     flash.Provider
	codec     *block.Codec
	secrets   *secret.Manager
	dataStart uint32
	dataCount uint32

	entries []*Entry
	byName  map[string]*Entry

	erased  span.List
	deleted span.List
	empty   span.List

	stats      Stats
	generation uint64

	haveSettings bool
	settingsBlock uint32
	settingsSeq   uint16
	settings      Settings

	dir *Entry

	onProgress func(i, n uint32)
}

// Option configures Open.
type Option func(*Vault)

// WithProgress registers a callback invoked after every block scanned
// during Open, so a caller can drive a progress indicator.
func WithProgress(fn func(i, n uint32)) Option {
	return func(v *Vault) { v.onProgress = fn }
}

// Stats returns the current block-state tally.
func (v *Vault) Stats() Stats { return v.stats }

// Generation returns the database's mutation counter. It strictly
// increases across every successful mutation and is the mechanism the
// remote-control surface uses to detect a concurrent change.
func (v *Vault) Generation() uint64 { return v.generation }

// Settings returns the device settings record.
func (v *Vault) Settings() Settings { return v.settings }

// allocBlock returns a freshly erased block, preferring the erased
// span pool; failing that it reclaims an erase-aligned run from the
// empty-but-obsolete pool, then from the deleted pool, erasing it first.
func (v *Vault) allocBlock() (uint32, error) {
	if n, ok := v.erased.PopOne(); ok {
		v.stats.Erased--
		return n, nil
	}

	egs := v.flash.EraseGroupSize()
	if base, ok := v.empty.PopEraseGroup(egs); ok {
		if err := v.flash.Erase(base, egs); err != nil {
			return 0, fmt.Errorf("vault: reclaim empty span at %d: %w: %v", base, vaulterr.ErrIO, err)
		}
		v.erased.Add(base, egs)
		v.stats.Empty -= egs
		v.stats.Erased += egs
		return v.allocBlock()
	}

	if base, ok := v.deleted.PopEraseGroup(egs); ok {
		if err := v.flash.Erase(base, egs); err != nil {
			return 0, fmt.Errorf("vault: reclaim deleted span at %d: %w: %v", base, vaulterr.ErrIO, err)
		}
		v.erased.Add(base, egs)
		v.stats.Deleted -= egs
		v.stats.Erased += egs
		return v.allocBlock()
	}

	return 0, vaulterr.ErrOutOfSpace
}

// writeEntry encodes e's current fields and commits them to a fresh
// block, then retires e's previous block (if any). A failure leaves e
// untouched in memory; the caller is responsible for having saved a copy
// to restore on failure, per the mutation protocol in §4.5.
func (v *Vault) writeEntry(e *Entry) error {
	key, err := v.secrets.MasterKey()
	if err != nil {
		return err
	}

	payload, err := encodeFields(e.Fields)
	if err != nil {
		return err
	}
	if len(payload) > v.codec.PayloadCapacity() {
		return fmt.Errorf("vault: entry %q: encoded record of %d bytes exceeds block capacity %d: %w",
			e.Name, len(payload), v.codec.PayloadCapacity(), vaulterr.ErrInvalidInput)
	}

	const maxSequence = 1<<15 - 1
	if e.Sequence >= maxSequence {
		return fmt.Errorf("vault: entry %q: %w", e.Name, vaulterr.ErrSequenceExhausted)
	}

	newBlock, err := v.allocBlock()
	if err != nil {
		return err
	}

	newSeq := e.Sequence + 1
	if err := v.codec.Write(v.flash, newBlock, block.ContentData, newSeq, payload, key); err != nil {
		_ = block.Delete(v.flash, newBlock, v.flash.BlockSize())
		v.deleted.Add(newBlock, 1)
		return fmt.Errorf("vault: write entry %q: %w", e.Name, err)
	}

	oldBlock := e.Block
	e.Block = newBlock
	e.Sequence = newSeq

	if oldBlock != 0 {
		_ = block.Delete(v.flash, oldBlock, v.flash.BlockSize())
		v.deleted.Add(oldBlock, 1)
	} else {
		v.stats.Data++
	}
	v.generation++
	return nil
}

func (v *Vault) removeEntryFromMemory(e *Entry) {
	delete(v.byName, e.Name)
	for i, o := range v.entries {
		if o == e {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return
		}
	}
}

func (v *Vault) sortEntries() {
	v.entries = topoSort(v.entries)
}

func findAll(entries []*Entry, match func(*Entry) bool) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}
