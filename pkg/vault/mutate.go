package vault

import (
	"fmt"

	"github.com/sunela/vault/pkg/block"
	"github.com/sunela/vault/pkg/vaulterr"
)

// NewEntry creates and persists a new, empty entry named name. It fails
// with vaulterr.ErrDuplicate if an entry with that name already exists.
func (v *Vault) NewEntry(name string) (*Entry, error) {
	if err := validateField(FieldID, []byte(name)); err != nil || len(name) == 0 {
		return nil, fmt.Errorf("vault: invalid entry name %q: %w", name, vaulterr.ErrInvalidInput)
	}
	if _, exists := v.byName[name]; exists {
		return nil, fmt.Errorf("vault: entry %q: %w", name, vaulterr.ErrDuplicate)
	}

	e := &Entry{Name: name, Fields: []Field{{Type: FieldID, Data: []byte(name)}}}
	v.entries = append(v.entries, e)
	v.byName[name] = e

	if err := v.writeEntry(e); err != nil {
		v.removeEntryFromMemory(e)
		return nil, err
	}
	v.sortEntries()
	return e, nil
}

// ChangeField sets (or replaces) field type t on e to data. FieldID
// cannot be changed this way; use Rename.
func (v *Vault) ChangeField(e *Entry, t FieldType, data []byte) error {
	if t == FieldID {
		return fmt.Errorf("vault: use Rename to change an entry's id: %w", vaulterr.ErrInvalidInput)
	}
	if err := validateField(t, data); err != nil {
		return err
	}

	saved := e.clone()
	e.setField(t, data)
	if e.deferred {
		e.dirty = true
		return nil
	}
	if err := v.writeEntry(e); err != nil {
		e.restore(saved)
		return err
	}
	return nil
}

// DeleteField removes field type t from e, if present.
func (v *Vault) DeleteField(e *Entry, t FieldType) error {
	if t == FieldID {
		return fmt.Errorf("vault: the id field cannot be deleted: %w", vaulterr.ErrInvalidInput)
	}
	saved := e.clone()
	if !e.removeField(t) {
		return fmt.Errorf("vault: entry %q has no field %d: %w", e.Name, t, vaulterr.ErrNotFound)
	}
	if e.deferred {
		e.dirty = true
		return nil
	}
	if err := v.writeEntry(e); err != nil {
		e.restore(saved)
		return err
	}
	return nil
}

// Rename changes e's name, updating any entry whose prev field pointed
// to the old name so the ordering chain survives the rename.
func (v *Vault) Rename(e *Entry, name string) error {
	if err := validateField(FieldID, []byte(name)); err != nil || len(name) == 0 {
		return fmt.Errorf("vault: invalid entry name %q: %w", name, vaulterr.ErrInvalidInput)
	}
	if name == e.Name {
		return nil
	}
	if _, exists := v.byName[name]; exists {
		return fmt.Errorf("vault: entry %q: %w", name, vaulterr.ErrDuplicate)
	}

	oldName := e.Name
	saved := e.clone()
	e.Name = name
	e.setField(FieldID, []byte(name))

	followers := findAll(v.entries, func(o *Entry) bool {
		if o == e {
			return false
		}
		p, ok := o.prevName()
		return ok && p == oldName
	})
	for _, f := range followers {
		f.setField(FieldPrev, []byte(name))
	}

	if e.deferred {
		e.dirty = true
	} else if err := v.writeEntry(e); err != nil {
		e.restore(saved)
		delete(v.byName, name)
		v.byName[oldName] = e
		return err
	}

	delete(v.byName, oldName)
	v.byName[name] = e

	for _, f := range followers {
		if f.deferred {
			f.dirty = true
			continue
		}
		if err := v.writeEntry(f); err != nil {
			return err
		}
	}
	v.sortEntries()
	return nil
}

// DeleteEntry removes e from the database, turning its current block
// (if any) into a deleted block.
func (v *Vault) DeleteEntry(e *Entry) error {
	if e.Block != 0 {
		if err := block.Delete(v.flash, e.Block, v.flash.BlockSize()); err != nil {
			return fmt.Errorf("vault: delete entry %q: %w: %v", e.Name, vaulterr.ErrIO, err)
		}
		v.deleted.Add(e.Block, 1)
		v.stats.Data--
	}
	v.removeEntryFromMemory(e)
	v.generation++
	return nil
}

// DeferUpdate, when defer is true, suppresses writing e to flash on
// every ChangeField/DeleteField call until DeferUpdate(e, false), at
// which point any accumulated change is written once.
func (v *Vault) DeferUpdate(e *Entry, deferWrites bool) error {
	if deferWrites {
		e.deferred = true
		return nil
	}
	e.deferred = false
	if !e.dirty {
		return nil
	}
	e.dirty = false
	return v.writeEntry(e)
}

// Iterate calls fn for each entry in the database's current order,
// stopping early if fn returns false.
func (v *Vault) Iterate(fn func(*Entry) bool) {
	for _, e := range v.entries {
		if !fn(e) {
			return
		}
	}
}

// MoveAfter reorders e to immediately follow after. If after is nil, e's
// prev field is removed, which places e among the entries without a prev
// field in case-sensitive name order; it is not necessarily first.
func (v *Vault) MoveAfter(e, after *Entry) error {
	oldPrev, hadOldPrev := e.prevName()

	pointingToE := findAll(v.entries, func(o *Entry) bool {
		if o == e {
			return false
		}
		p, ok := o.prevName()
		return ok && p == e.Name
	})

	var afterName string
	var pointingToAfter []*Entry
	if after != nil {
		afterName = after.Name
		pointingToAfter = findAll(v.entries, func(o *Entry) bool {
			if o == e {
				return false
			}
			p, ok := o.prevName()
			return ok && p == afterName
		})
	}

	if after != nil {
		e.setField(FieldPrev, []byte(afterName))
	} else {
		e.removeField(FieldPrev)
	}
	for _, o := range pointingToE {
		if hadOldPrev {
			o.setField(FieldPrev, []byte(oldPrev))
		} else {
			o.removeField(FieldPrev)
		}
	}
	for _, o := range pointingToAfter {
		o.setField(FieldPrev, []byte(e.Name))
	}

	touched := append([]*Entry{e}, pointingToE...)
	touched = append(touched, pointingToAfter...)
	for _, o := range touched {
		if o.deferred {
			o.dirty = true
			continue
		}
		if err := v.writeEntry(o); err != nil {
			return err
		}
	}
	v.sortEntries()
	return nil
}

// MoveBefore reorders e to immediately precede before, or to the end of
// the list if before is nil. It does so by moving e after the entry named
// by before's prev field; if before has no prev field, or that entry does
// not exist, it behaves as MoveAfter(e, nil) and e does not necessarily
// end up in front of before.
func (v *Vault) MoveBefore(e, before *Entry) error {
	if before == nil {
		var last *Entry
		for _, o := range v.entries {
			if o != e {
				last = o
			}
		}
		return v.MoveAfter(e, last)
	}
	prevName, had := before.prevName()
	var afterEntry *Entry
	if had {
		afterEntry = v.byName[prevName]
	}
	return v.MoveAfter(e, afterEntry)
}
