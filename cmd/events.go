package cmd

import (
	"fmt"

	"github.com/jboxsh/jbox/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the jsh event log.",
}

type logEntryHandler interface {
	Update(le *logger.LogEntry)
}

// renderReport feeds every entry of the event log to report and prints it as
// YAML.
func renderReport(cmd *cobra.Command, report logEntryHandler) error {
	cmd.SilenceUsage = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadEventLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, &logger.Report{})
	},
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show events that point to bugs in commands.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, logger.NewBugReport())
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Show the jobs run by each session.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, &logger.SessionReport{})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(bugsCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
