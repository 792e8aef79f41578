package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vault"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every entry in the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pinFlag.FlagValidate(); err != nil {
			return err
		}
		v, p, err := openDevice(pinFlag.Value)
		if err != nil {
			return err
		}
		defer closeProvider(p)

		v.Iterate(func(e *vault.Entry) bool {
			kind := "entry"
			if e.IsDir() {
				kind = "dir"
			}
			fmt.Printf("%-20s %s\n", e.Name, kind)
			return true
		})
		return nil
	},
}

func init() {
	addPINFlag(lsCmd)
}
