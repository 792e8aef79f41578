// Package vaultcfg loads and validates the device configuration that
// describes how a vault is laid out across flash: block size, erase-group
// size, and the split between the PIN-pad region and the entry database.
package vaultcfg

import (
	"bytes"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/sunela/vault/pkg/vaultlog"
)

// Config is the on-disk device layout, which sunela-vault stores next to
// the flash image as <image>.yaml.
type Config struct {
	BlockSize      int `yaml:"block-size,omitempty"`
	EraseGroupSize int `yaml:"erase-group-size,omitempty"`
	PadBlocks      int `yaml:"pad-blocks,omitempty"`
	DataBlocks     int `yaml:"data-blocks,omitempty"`

	Cooldown CooldownConfig `yaml:"cooldown,omitempty"`
}

// CooldownConfig mirrors pkg/secret.Cooldown's tunables. The values are
// defaulted, validated, and stored, but nothing passes them to pkg/secret:
// a Manager always uses NewCooldown's built-in parameters.
type CooldownConfig struct {
	FreeAttempts int `yaml:"free-attempts,omitempty"`
	WaitMinSec   int `yaml:"wait-min-sec,omitempty"`
	WaitMaxSec   int `yaml:"wait-max-sec,omitempty"`
}

// Load reads a Config from data (YAML) via viper, matching keys against
// the same yaml tags Marshal writes. No environment variables or flags
// are bound, so the result reflects data alone.
func Load(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("vaultcfg: read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, fmt.Errorf("vaultcfg: unmarshal config: %w", err)
	}
	return &c, nil
}

// Marshal serializes c back to YAML, e.g. when `sunela-vault init` writes
// the config file for a new image.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// WithDefaults fills in zero fields with the values the reference device
// firmware hard-codes, logging each substitution at debug level.
func WithDefaults(c *Config, log vaultlog.Logger) {
	if c.BlockSize == 0 {
		log.Debugf("vaultcfg: using default block size (4096)")
		c.BlockSize = 4096
	}
	if c.EraseGroupSize == 0 {
		log.Debugf("vaultcfg: using default erase-group size (4)")
		c.EraseGroupSize = 4
	}
	if c.PadBlocks == 0 {
		log.Debugf("vaultcfg: using default pad region size (8 blocks)")
		c.PadBlocks = 8
	}
	if c.DataBlocks == 0 {
		log.Debugf("vaultcfg: using default data region size (256 blocks)")
		c.DataBlocks = 256
	}
	if c.Cooldown.FreeAttempts == 0 {
		c.Cooldown.FreeAttempts = 3
	}
	if c.Cooldown.WaitMinSec == 0 {
		c.Cooldown.WaitMinSec = 60
	}
	if c.Cooldown.WaitMaxSec == 0 {
		c.Cooldown.WaitMaxSec = 3600
	}
}

// Validate checks the invariants pkg/span and pkg/secret rely on: both
// regions must be erase-group aligned, and the pad region needs at least
// two generations to make forward progress on a PIN change.
func Validate(c *Config) error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("vaultcfg: block-size must be positive")
	}
	if c.EraseGroupSize <= 0 {
		return fmt.Errorf("vaultcfg: erase-group-size must be positive")
	}
	if c.PadBlocks%c.EraseGroupSize != 0 {
		return fmt.Errorf("vaultcfg: pad-blocks (%d) must be a multiple of erase-group-size (%d)", c.PadBlocks, c.EraseGroupSize)
	}
	if c.PadBlocks/c.EraseGroupSize < 2 {
		return fmt.Errorf("vaultcfg: pad region must span at least 2 erase groups, got %d", c.PadBlocks/c.EraseGroupSize)
	}
	if c.DataBlocks%c.EraseGroupSize != 0 {
		return fmt.Errorf("vaultcfg: data-blocks (%d) must be a multiple of erase-group-size (%d)", c.DataBlocks, c.EraseGroupSize)
	}
	if c.Cooldown.WaitMinSec <= 0 || c.Cooldown.WaitMaxSec < c.Cooldown.WaitMinSec {
		return fmt.Errorf("vaultcfg: cooldown wait bounds are invalid (min=%d max=%d)", c.Cooldown.WaitMinSec, c.Cooldown.WaitMaxSec)
	}
	return nil
}
