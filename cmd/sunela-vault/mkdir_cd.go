package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vault"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Turn an entry into a directory",
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

		e, err := findOrCreate(v, args[0])
		if err != nil {
			return err
		}
		return v.Mkdir(e)
	},
}

var cdCmd = &cobra.Command{
	Use:   "cd [name]",
	Short: "Change the current directory, or return to the root with no argument",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pinFlag.FlagValidate(); err != nil {
			return err
		}
		v, p, err := openDevice(pinFlag.Value)
		if err != nil {
			return err
		}
		defer closeProvider(p)

		if len(args) == 0 {
			return v.Chdir(nil)
		}
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
		return v.Chdir(e)
	},
}

func findOrCreate(v *vault.Vault, name string) (*vault.Entry, error) {
	var e *vault.Entry
	v.Iterate(func(c *vault.Entry) bool {
		if c.Name == name {
			e = c
			return false
		}
		return true
	})
	if e != nil {
		return e, nil
	}
	return v.NewEntry(name)
}

func init() {
	addPINFlag(mkdirCmd)
	addPINFlag(cdCmd)
}
