package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vault"
)

var showRevealFlag = false

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the fields of an entry, masking secret values by default",
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

		for _, f := range e.Fields {
			switch f.Type {
			case vault.FieldID, vault.FieldPrev:
				continue
			case vault.FieldPassword, vault.FieldPassword2, vault.FieldHOTPSecret, vault.FieldTOTPSecret:
				if showRevealFlag {
					fmt.Printf("%-14s %s\n", fieldDisplayName(f.Type), f.Data)
				} else {
					fmt.Printf("%-14s (hidden; use --reveal)\n", fieldDisplayName(f.Type))
				}
			case vault.FieldDir:
				fmt.Printf("%-14s (directory)\n", fieldDisplayName(f.Type))
			default:
				fmt.Printf("%-14s %s\n", fieldDisplayName(f.Type), f.Data)
			}
		}
		return nil
	},
}

func init() {
	addPINFlag(showCmd)
	showCmd.Flags().BoolVar(&showRevealFlag, "reveal", false, "print secret field values instead of masking them")
}
