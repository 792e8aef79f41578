package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/vault"
	"github.com/sunela/vault/pkg/vaultcfg"
)

// deviceSecretPath is where the hardware-tied secret the reference
// firmware keeps in one-time-programmable fuses would live on a real
// device. Here it's a sibling file to the flash image, never written to
// the image itself.
func deviceSecretPath() string {
	return flagDevice + ".secret"
}

func configPath() string {
	return flagDevice + ".yaml"
}

func loadConfig() (*vaultcfg.Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		c := &vaultcfg.Config{}
		vaultcfg.WithDefaults(c, log)
		return c, nil
	}
	c, err := vaultcfg.Load(data)
	if err != nil {
		return nil, err
	}
	vaultcfg.WithDefaults(c, log)
	if err := vaultcfg.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func readDeviceSecret() ([secret.Size]byte, error) {
	var s [secret.Size]byte
	data, err := os.ReadFile(deviceSecretPath())
	if err != nil {
		return s, fmt.Errorf("read device secret: %w (run init first)", err)
	}
	if len(data) != secret.Size {
		return s, fmt.Errorf("device secret file has %d bytes, want %d", len(data), secret.Size)
	}
	copy(s[:], data)
	return s, nil
}

func writeDeviceSecret(s [secret.Size]byte) error {
	return os.WriteFile(deviceSecretPath(), s[:], 0o600)
}

func randomDeviceSecret() ([secret.Size]byte, error) {
	var s [secret.Size]byte
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("generate device secret: %w", err)
	}
	return s, nil
}

// openDevice opens the flash image, unlocks the secrets manager with pin,
// and opens the vault on top of it. Callers must Close the returned
// flash.Provider (if it implements io.Closer) when done.
func openDevice(pin uint32) (*vault.Vault, flash.Provider, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	p, err := flash.OpenFile(flagDevice, c.BlockSize, uint32(c.EraseGroupSize))
	if err != nil {
		return nil, nil, err
	}

	deviceSecret, err := readDeviceSecret()
	if err != nil {
		return nil, nil, err
	}

	mgr, err := secret.Open(p, 0, uint32(c.PadBlocks), deviceSecret)
	if err != nil {
		return nil, nil, err
	}
	if err := mgr.Unlock(pin); err != nil {
		return nil, nil, err
	}

	v, err := vault.Open(p, mgr, uint32(c.PadBlocks), uint32(c.DataBlocks),
		vault.WithProgress(func(i, n uint32) {
			log.Debugf("scanning block %d/%d", i, n)
		}))
	if err != nil {
		return nil, nil, err
	}
	return v, p, nil
}

// closeProvider closes p if it holds an open resource (a *flash.File);
// flash.Mem needs no cleanup.
func closeProvider(p flash.Provider) {
	if c, ok := p.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
