// Package rmt is the informative remote-control surface the reference
// firmware exposes over USB (rmt/rmt-db.c): LS, SHOW, REVEAL, GET_TIME and
// SET_TIME. Handler adapts those operations onto pkg/vault's exported API
// only — it never touches flash directly, matching the original's
// generation-checked, read-mostly access pattern.
package rmt

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sunela/vault/pkg/vault"
	"github.com/sunela/vault/pkg/vaulterr"
)

// ErrDBChanged reports that the vault's generation counter moved since the
// caller last synchronized, the same abort the firmware signals to a
// remote session mid-listing with the literal response "DB changed".
var ErrDBChanged = fmt.Errorf("rmt: database changed since last sync: %w", vaulterr.ErrChanged)

// Handler serves remote-control requests against a single open Vault.
type Handler struct {
	v   *vault.Vault
	now func() time.Time

	// offset shifts now() so SetTime can adjust the reported clock without
	// touching the host's own clock, mirroring the firmware's time_offset.
	offset time.Duration

	// id identifies this handler instance to a reconnecting transport. The
	// original firmware has no equivalent -- a single physical USB link
	// implies a single session -- but this surface can be served over a
	// transport that may reconnect, and a fresh id per Handler lets a
	// caller tell a resumed session from a stale one instead of replaying
	// a generation counter that happens to coincide by chance.
	id uuid.UUID
}

// NewHandler returns a Handler backed by v, using the real wall clock and a
// freshly generated session id.
func NewHandler(v *vault.Vault) *Handler {
	return &Handler{v: v, now: time.Now, id: uuid.New()}
}

// SessionID returns this handler's session id, for a transport to
// distinguish reconnects of the same session from a brand new one.
func (h *Handler) SessionID() string {
	return h.id.String()
}

// Generation returns the vault's current generation counter, for a caller
// to remember and pass back into LS/Show to detect concurrent mutation.
func (h *Handler) Generation() uint64 {
	return h.v.Generation()
}

func (h *Handler) checkGeneration(since uint64) error {
	if since != h.v.Generation() {
		return ErrDBChanged
	}
	return nil
}

// LS lists every entry name in the database's current order. since must be
// a generation previously obtained from Generation; LS fails with
// ErrDBChanged if the database mutated in the meantime, exactly as the
// firmware aborts an in-progress listing.
func (h *Handler) LS(since uint64) ([]string, error) {
	if err := h.checkGeneration(since); err != nil {
		return nil, err
	}
	var names []string
	h.v.Iterate(func(e *vault.Entry) bool {
		names = append(names, e.Name)
		return true
	})
	return names, nil
}

// ShowField is one field of an entry as returned by Show. Secret-bearing
// field types carry no Data — only their presence — matching rmt-db.c's
// RDOP_SHOW, which sends the type byte alone for ft_pw/ft_pw2/
// ft_hotp_secret/ft_totp_secret and withholds the value until REVEAL.
type ShowField struct {
	Type vault.FieldType
	Data []byte // nil for secret-bearing field types
}

func isSecretField(t vault.FieldType) bool {
	switch t {
	case vault.FieldPassword, vault.FieldPassword2, vault.FieldHOTPSecret, vault.FieldTOTPSecret:
		return true
	}
	return false
}

// isExportable reports whether a field type is ever sent over RMT at all;
// id, prev and dir are bookkeeping, not user-visible data.
func isExportable(t vault.FieldType) bool {
	switch t {
	case vault.FieldID, vault.FieldPrev, vault.FieldDir:
		return false
	}
	return true
}

// Show lists the fields of the entry named name, masking secret values.
func (h *Handler) Show(since uint64, name string) ([]ShowField, error) {
	if err := h.checkGeneration(since); err != nil {
		return nil, err
	}
	e, ok := h.findByName(name)
	if !ok {
		return nil, fmt404(name)
	}
	var out []ShowField
	for _, f := range e.Fields {
		if !isExportable(f.Type) {
			continue
		}
		sf := ShowField{Type: f.Type}
		if !isSecretField(f.Type) {
			sf.Data = f.Data
		}
		out = append(out, sf)
	}
	return out, nil
}

// Reveal returns the raw value of a secret-bearing field on the entry
// named name. It refuses non-secret field types, matching rmt-db.c's
// RDOP_REVEAL switch, which only arms ui_rmt_reveal for
// pw/pw2/hotp_secret/totp_secret.
func (h *Handler) Reveal(name string, t vault.FieldType) ([]byte, error) {
	if !isSecretField(t) {
		return nil, fmt.Errorf("rmt: field type %d is not revealable: %w", t, vaulterr.ErrInvalidInput)
	}
	e, ok := h.findByName(name)
	if !ok {
		return nil, fmt404(name)
	}
	f, ok := e.FieldFind(t)
	if !ok {
		return nil, fmt404(name)
	}
	return f.Data, nil
}

func (h *Handler) findByName(name string) (*vault.Entry, bool) {
	var found *vault.Entry
	h.v.Iterate(func(e *vault.Entry) bool {
		if e.Name == name {
			found = e
			return false
		}
		return true
	})
	return found, found != nil
}

func fmt404(name string) error {
	return fmt.Errorf("rmt: entry %q: %w", name, vaulterr.ErrNotFound)
}

// GetTime returns the device's current notion of wall-clock time, as a
// Unix timestamp, the way RDOP_GET_TIME reports time_us()/1e6 + time_offset.
func (h *Handler) GetTime() int64 {
	return h.now().Add(h.offset).Unix()
}

// SetTime adjusts the device's clock offset so GetTime immediately returns
// unixTime, without touching the underlying clock source.
func (h *Handler) SetTime(unixTime int64) {
	h.offset = time.Unix(unixTime, 0).Sub(h.now())
}
