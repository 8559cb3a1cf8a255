package cmd

import (
	"fmt"
	"os"

	"roster-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "roster-sync",
	Short: "Live player roster client",
	Long: `roster-sync keeps a local player roster in step with a remote backend.
It loads a REST snapshot, merges the live WebSocket event feed on top of it,
and serves the result over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console at debug level gives readable timestamps for CLI output
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
