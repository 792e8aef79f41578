// Package secret implements the vault's PIN-indirection key management:
// deriving a master pattern and lookup id from a device secret and PIN,
// storing the master key XORed against that pattern in a rotating pad
// region, and throttling repeated failed PIN attempts.
package secret

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/vaulterr"
)

// Manager holds the runtime state needed to unlock the vault and to
// change its PIN: the region it stores pads in, the device secret burned
// in at manufacture, and the key material recovered after a successful
// unlock.
type Manager struct {
	region       *Region
	deviceSecret [Size]byte
	cooldown     *Cooldown

	unlocked  bool
	pin       uint32
	masterKey [Size]byte
	gen       uint32
	seq       uint16
}

// Open attaches a Manager to an existing pad region.
func Open(p flash.Provider, startBlock, totalBlocks uint32, deviceSecret [Size]byte) (*Manager, error) {
	region, err := OpenRegion(p, startBlock, totalBlocks)
	if err != nil {
		return nil, err
	}
	return &Manager{
		region:       region,
		deviceSecret: deviceSecret,
		cooldown:     NewCooldown(),
	}, nil
}

// Provision formats a fresh pad region for a brand-new device: it draws a
// random master key, the actual key the rest of the vault encrypts with,
// and stores it behind the given initial PIN.
func Provision(p flash.Provider, startBlock, totalBlocks uint32, deviceSecret [Size]byte, pin uint32) (*Manager, error) {
	region, err := OpenRegion(p, startBlock, totalBlocks)
	if err != nil {
		return nil, err
	}

	var masterKey [Size]byte
	if _, err := rand.Read(masterKey[:]); err != nil {
		return nil, fmt.Errorf("secret: generate master key: %w: %v", vaulterr.ErrIO, err)
	}

	gen, seq, err := region.Write(&deviceSecret, pin, pin, masterKey, -1, 0)
	if err != nil {
		return nil, err
	}

	return &Manager{
		region:       region,
		deviceSecret: deviceSecret,
		cooldown:     NewCooldown(),
		unlocked:     true,
		pin:          pin,
		masterKey:    masterKey,
		gen:          gen,
		seq:          seq,
	}, nil
}

// Unlock validates pin against the pad region and, on success, makes the
// master key available via MasterKey. It returns vaulterr.ErrLocked while a
// cooldown from previous failures is still in effect, and vaulterr.ErrIO
// wrapped errors for I/O failures. An incorrect PIN returns
// vaulterr.ErrInvalidInput.
func (m *Manager) Unlock(pin uint32) error {
	if rem := m.cooldown.Remaining(); rem > 0 {
		return fmt.Errorf("secret: PIN locked out for %s: %w", rem, vaulterr.ErrLocked)
	}

	masterKey, gen, seq, found, err := m.region.Find(&m.deviceSecret, pin)
	if err != nil {
		return err
	}
	if !found {
		m.cooldown.Fail()
		return fmt.Errorf("secret: incorrect PIN: %w", vaulterr.ErrInvalidInput)
	}

	m.cooldown.Success()
	m.pin = pin
	m.masterKey = masterKey
	m.gen = gen
	m.seq = seq
	m.unlocked = true
	return nil
}

// Locked reports whether the vault has not yet been unlocked in this
// session.
func (m *Manager) Locked() bool {
	return !m.unlocked
}

// MasterKey returns the key the rest of the vault should encrypt blocks
// with. It fails with vaulterr.ErrLocked if Unlock has not yet succeeded.
func (m *Manager) MasterKey() (*[Size]byte, error) {
	if !m.unlocked {
		return nil, vaulterr.ErrLocked
	}
	key := m.masterKey
	return &key, nil
}

// CooldownRemaining reports how much longer a locked-out caller must wait
// before the next PIN attempt is accepted.
func (m *Manager) CooldownRemaining() time.Duration {
	return m.cooldown.Remaining()
}

// ChangePIN replaces the current PIN with newPin, preserving the master
// key: the pad is rewritten, but every block the vault has already
// encrypted remains valid, since the key protecting it never changes.
func (m *Manager) ChangePIN(newPin uint32) error {
	if !m.unlocked {
		return vaulterr.ErrLocked
	}
	if newPin == m.pin {
		return fmt.Errorf("secret: new PIN matches the current PIN: %w", vaulterr.ErrInvalidInput)
	}

	gen, seq, err := m.region.Write(&m.deviceSecret, m.pin, newPin, m.masterKey, int(m.gen), m.seq)
	if err != nil {
		return err
	}
	m.pin = newPin
	m.gen = gen
	m.seq = seq
	return nil
}
