package vault

import (
	"fmt"

	"github.com/sunela/vault/pkg/block"
)

// Settings holds the device-wide boolean flags stored in the singleton
// settings record.
type Settings struct {
	Crosshair bool // show a crosshair at the tap position
	StrictRMT bool // panic rather than recover on an RMT protocol error
}

func encodeSettings(s Settings) []byte {
	var b byte
	if s.Crosshair {
		b |= 1 << 0
	}
	if s.StrictRMT {
		b |= 1 << 1
	}
	return []byte{b}
}

func decodeSettings(buf []byte) Settings {
	var s Settings
	if len(buf) > 0 {
		s.Crosshair = buf[0]&(1<<0) != 0
		s.StrictRMT = buf[0]&(1<<1) != 0
	}
	return s
}

// UpdateSettings persists a new settings record, following the same
// fresh-block-then-invalidate-old protocol as entry mutations.
func (v *Vault) UpdateSettings(s Settings) error {
	key, err := v.secrets.MasterKey()
	if err != nil {
		return err
	}

	newBlock, err := v.allocBlock()
	if err != nil {
		return err
	}

	newSeq := v.settingsSeq + 1
	if err := v.codec.Write(v.flash, newBlock, block.ContentSettings, newSeq, encodeSettings(s), key); err != nil {
		_ = block.Delete(v.flash, newBlock, v.flash.BlockSize())
		v.deleted.Add(newBlock, 1)
		return fmt.Errorf("vault: update settings: %w", err)
	}

	if v.haveSettings {
		_ = block.Delete(v.flash, v.settingsBlock, v.flash.BlockSize())
		v.deleted.Add(v.settingsBlock, 1)
	} else {
		v.stats.Special++
		v.haveSettings = true
	}

	v.settingsBlock = newBlock
	v.settingsSeq = newSeq
	v.settings = s
	v.generation++
	return nil
}
