package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	commandInit()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	logrus.SetLevel(logrus.TraceLevel)
}
