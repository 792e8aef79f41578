package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vault"
	"github.com/sunela/vault/pkg/vflag"
)

var setFieldFlag = vflag.NewFieldFlag("field", "f", "set a field as name=value (repeatable)", nil)

var setCmd = &cobra.Command{
	Use:   "set <name> [--field name=value ...]",
	Short: "Create or update an entry, setting one or more fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pinFlag.FlagValidate(); err != nil {
			return err
		}
		if err := setFieldFlag.FlagValidate(); err != nil {
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
			e, err = v.NewEntry(args[0])
			if err != nil {
				return err
			}
		}

		if err := v.DeferUpdate(e, true); err != nil {
			return err
		}
		for _, kv := range setFieldFlag.Value {
			t, err := parseFieldName(kv.Name)
			if err != nil {
				_ = v.DeferUpdate(e, false)
				return err
			}
			if err := v.ChangeField(e, t, []byte(kv.Value)); err != nil {
				_ = v.DeferUpdate(e, false)
				return err
			}
		}
		if err := v.DeferUpdate(e, false); err != nil {
			return err
		}

		fmt.Printf("updated %q (%d fields changed)\n", args[0], len(setFieldFlag.Value))
		return nil
	},
}

func init() {
	addPINFlag(setCmd)
	setFieldFlag.AddTo(setCmd.Flags())
}
