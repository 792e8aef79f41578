package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/vflag"
)

var newPINFlag = vflag.NewUint32Flag("new-pin", "", "new PIN to set", nil)

var changePINCmd = &cobra.Command{
	Use:   "change-pin",
	Short: "Change the device PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pinFlag.FlagValidate(); err != nil {
			return err
		}
		if err := newPINFlag.FlagValidate(); err != nil {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := flash.OpenFile(flagDevice, c.BlockSize, uint32(c.EraseGroupSize))
		if err != nil {
			return err
		}
		defer closeProvider(p)

		deviceSecret, err := readDeviceSecret()
		if err != nil {
			return err
		}

		mgr, err := secret.Open(p, 0, uint32(c.PadBlocks), deviceSecret)
		if err != nil {
			return err
		}
		if err := mgr.Unlock(pinFlag.Value); err != nil {
			return err
		}
		if err := mgr.ChangePIN(newPINFlag.Value); err != nil {
			return err
		}
		fmt.Println("PIN changed")
		return nil
	},
}

func init() {
	addPINFlag(changePINCmd)
	newPINFlag.AddTo(changePINCmd.Flags())
	_ = changePINCmd.MarkFlagRequired("new-pin")
}
