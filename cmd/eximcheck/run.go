package main

import (
	"context"
	"fmt"
	"os"

	"eximcheck"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script.toml>",
	Short: "run a routing check script and emit TAP on stdout",
	Args:  cobra.ExactArgs(1),
	Run:   runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) {
	script, err := eximcheck.LoadScript(args[0])
	if err != nil {
		bailOut(err)
	}

	cfg := eximcheck.Config{Exim: script.Exim, Log: script.Log}
	if verbose {
		cfg.Log.Level = "debug"
	}
	h, err := eximcheck.New(cfg)
	if err != nil {
		bailOut(err)
	}

	failed, err := h.RunScript(context.Background(), &script)
	if err != nil {
		bailOut(err)
	}
	if failed > 0 {
		logrus.WithField("failed", failed).Error("routing checks failed")
		os.Exit(1)
	}
}

// bailOut reports a usage or configuration error. These abort the whole run
// with the TAP bail-out line rather than counting as failed points.
func bailOut(err error) {
	fmt.Printf("Bail out! %s\n", err)
	logrus.WithError(err).Error("cannot run check script")
	os.Exit(2)
}
