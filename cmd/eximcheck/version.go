package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"eximcheck"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version info",
	Run: func(cmd *cobra.Command, args []string) {
		logVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func logVersion() {
	logrus.WithFields(logrus.Fields{
		"version":   eximcheck.Version,
		"commit":    eximcheck.Commit,
		"buildTime": eximcheck.BuildTime,
	}).Info("eximcheck")
}
