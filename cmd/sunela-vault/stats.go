package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the block-state tally computed when the device was opened",
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

		s := v.Stats()
		fmt.Printf("total:   %d\n", s.Total)
		fmt.Printf("erased:  %d\n", s.Erased)
		fmt.Printf("deleted: %d\n", s.Deleted)
		fmt.Printf("empty:   %d\n", s.Empty)
		fmt.Printf("invalid: %d\n", s.Invalid)
		fmt.Printf("error:   %d\n", s.Error)
		fmt.Printf("data:    %d\n", s.Data)
		fmt.Printf("special: %d\n", s.Special)
		fmt.Printf("generation: %d\n", v.Generation())
		return nil
	},
}

func init() {
	addPINFlag(statsCmd)
}
