package main

import (
	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vflag"
)

// pinFlag is shared by every subcommand that needs to unlock an existing
// device; only one leaf command runs per invocation, so one instance is
// enough.
var pinFlag = vflag.NewUint32Flag("pin", "", "device PIN", nil)

func addPINFlag(cmd *cobra.Command) {
	pinFlag.AddTo(cmd.Flags())
	_ = cmd.MarkFlagRequired("pin")
}
