package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sunela/vault/pkg/vaultlog"
)

var log vaultlog.View = vaultlog.Nil

var (
	flagVerbose bool
	flagDebug   bool
	flagJSON    bool
	flagDevice  string
)

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "format log messages as JSON")
	rootCmd.PersistentFlags().StringVar(&flagDevice, "device", "vault.img", "path to the flash image")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger := &vaultlog.CLI{}
		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logrus.SetFormatter(logger)
		}
		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}
		log = logger
		return nil
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(cdCmd)
	rootCmd.AddCommand(changePINCmd)
	rootCmd.AddCommand(statsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "sunela-vault",
	Short: "Manage a Sunela handheld's flash-resident credential store",
	Long: `sunela-vault operates the log-structured, encrypted key-value
database a Sunela handheld keeps on its flash chip: initializing a fresh
device, listing and editing entries, and changing the PIN.`,
}
