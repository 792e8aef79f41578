package vaultcfg

import (
	"strings"
	"testing"

	"github.com/sunela/vault/pkg/vaultlog"
)

func TestLoadParsesYAML(t *testing.T) {
	c, err := Load([]byte("block-size: 512\nerase-group-size: 2\npad-blocks: 4\ndata-blocks: 8\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.BlockSize != 512 || c.EraseGroupSize != 2 || c.PadBlocks != 4 || c.DataBlocks != 8 {
		t.Fatalf("c = %+v", c)
	}
}

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	c := &Config{}
	WithDefaults(c, vaultlog.Nil)
	if err := Validate(c); err != nil {
		t.Fatalf("defaulted config should validate: %v", err)
	}
}

func TestValidateRejectsUnalignedPadBlocks(t *testing.T) {
	c := &Config{BlockSize: 512, EraseGroupSize: 4, PadBlocks: 6, DataBlocks: 8}
	err := Validate(c)
	if err == nil || !strings.Contains(err.Error(), "pad-blocks") {
		t.Fatalf("err = %v, want pad-blocks alignment error", err)
	}
}

func TestValidateRejectsSingleGenerationPad(t *testing.T) {
	c := &Config{BlockSize: 512, EraseGroupSize: 4, PadBlocks: 4, DataBlocks: 8}
	err := Validate(c)
	if err == nil || !strings.Contains(err.Error(), "2 erase groups") {
		t.Fatalf("err = %v, want pad generation-count error", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	c := &Config{BlockSize: 512, EraseGroupSize: 4, PadBlocks: 8, DataBlocks: 16}
	data, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if *c2 != *c {
		t.Fatalf("c2 = %+v, want %+v", c2, c)
	}
}
