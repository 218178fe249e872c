package cmd

import (
	"log"

	"github.com/jboxsh/jbox/core/config"
	"github.com/spf13/cobra"
)

// initCmd writes a default configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the jbox configuration in the config directory.",
	Long: `Initialize the jbox configuration in the config directory (--config,
the current directory by default): config.yaml, an SSH host key and the
recordings directory. Existing files are kept.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		_, err := config.Initialize(cfgPath, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
