package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vault"
)

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pinFlag.FlagValidate(); err != nil {
			return err
		}
		v, p, err := openDevice(pinFlag.Value)
		if err != nil {
			return err
		}
		defer closeProvider(p)

		var e *vault.Entry
		v.Iterate(func(c *vault.Entry) bool {
			if c.Name == args[0] {
				e = c
				return false
			}
			return true
		})
		if e == nil {
			return fmt.Errorf("no such entry: %q", args[0])
		}
		if err := v.DeleteEntry(e); err != nil {
			return err
		}
		fmt.Printf("deleted %q\n", args[0])
		return nil
	},
}

func init() {
	addPINFlag(rmCmd)
}
