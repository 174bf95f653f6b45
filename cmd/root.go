// Package cmd holds the command line entry points of the service
package cmd

import (
	"fmt"
	"os"

	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "linksphere",
	Short:   "LinkSphere partner program service",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		return utils.InitLogger(utils.LogConfig{
			Level:       cfg.LogLevel,
			Environment: cfg.Env,
			ServiceName: utils.AppName,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.SyncLogger()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
