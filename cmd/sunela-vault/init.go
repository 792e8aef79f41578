package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/vaultcfg"
	"github.com/sunela/vault/pkg/vflag"
)

var initPINFlag = vflag.NewUint32Flag("pin", "", "initial PIN for the new device", nil)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision a fresh flash image with an empty vault and a PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initPINFlag.FlagValidate(); err != nil {
			return err
		}

		if _, err := os.Stat(flagDevice); err == nil {
			return fmt.Errorf("%s already exists; remove it first", flagDevice)
		}

		c := &vaultcfg.Config{}
		vaultcfg.WithDefaults(c, log)
		if err := vaultcfg.Validate(c); err != nil {
			return err
		}
		data, err := vaultcfg.Marshal(c)
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath(), data, 0o644); err != nil {
			return err
		}

		totalBlocks := uint32(c.PadBlocks + c.DataBlocks)
		p, err := flash.CreateFile(flagDevice, totalBlocks, c.BlockSize, uint32(c.EraseGroupSize))
		if err != nil {
			return err
		}
		defer p.Close()

		deviceSecret, err := randomDeviceSecret()
		if err != nil {
			return err
		}
		if err := writeDeviceSecret(deviceSecret); err != nil {
			return err
		}

		if _, err := secret.Provision(p, 0, uint32(c.PadBlocks), deviceSecret, initPINFlag.Value); err != nil {
			return err
		}

		log.Printf("initialized %s (%d pad blocks, %d data blocks, %d bytes/block)",
			flagDevice, c.PadBlocks, c.DataBlocks, c.BlockSize)
		return nil
	},
}

func init() {
	initPINFlag.AddTo(initCmd.Flags())
	_ = initCmd.MarkFlagRequired("pin")
}
