package vault

import (
	"fmt"

	"github.com/sunela/vault/pkg/vaulterr"
)

// Mkdir turns an empty entry into a directory by attaching a dir field.
func (v *Vault) Mkdir(e *Entry) error {
	if e.IsAccount() {
		return fmt.Errorf("vault: entry %q already has account fields: %w", e.Name, vaulterr.ErrInvalidInput)
	}
	if e.IsDir() {
		return nil
	}
	saved := e.clone()
	e.setField(FieldDir, nil)
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

// Mkentry turns an empty directory back into a plain entry by removing
// its dir field. It refuses to convert the directory currently open via
// Chdir.
func (v *Vault) Mkentry(e *Entry) error {
	if !e.IsDir() {
		return fmt.Errorf("vault: entry %q is not a directory: %w", e.Name, vaulterr.ErrInvalidInput)
	}
	if v.dir == e {
		return fmt.Errorf("vault: cannot convert the current directory %q: %w", e.Name, vaulterr.ErrInvalidInput)
	}
	saved := e.clone()
	e.removeField(FieldDir)
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

// Chdir changes the current directory to e, or to the root if e is nil.
func (v *Vault) Chdir(e *Entry) error {
	if e != nil && !e.IsDir() {
		return fmt.Errorf("vault: entry %q is not a directory: %w", e.Name, vaulterr.ErrInvalidInput)
	}
	v.dir = e
	return nil
}

// DirParent returns the currently open directory entry, or nil at the
// root.
func (v *Vault) DirParent() *Entry {
	return v.dir
}

// Pwd returns the name of the current directory, or ok==false at the
// root. It returns only the directory's own name, not a full path.
func (v *Vault) Pwd() (string, bool) {
	if v.dir == nil {
		return "", false
	}
	return v.dir.Name, true
}
