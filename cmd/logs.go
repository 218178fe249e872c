package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jboxsh/jbox/core/ttylog"
	"github.com/spf13/cobra"
)

var (
	fixCRLF       bool
	idleTimeLimit time.Duration
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore recorded interactive sessions.",
}

// playCommand replays a recording in real time.
var playCommand = &cobra.Command{
	Use:   "play RECORDING",
	Short: "Replay a recorded interactive session in the terminal.",
	Long:  `Plays a recorded interactive session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()
		source := createLogSource(args[0], fd)

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// catCommand prints a recording without pauses.
var catCommand = &cobra.Command{
	Use:   "cat RECORDING",
	Short: "Print full output of recorded log to a terminal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := createLogSource(args[0], fd)
		sink := ttylog.NewClientOutput(cmd.OutOrStdout())

		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// asciicastCmd converts a UML log to the asciicast format
var asciicastCmd = &cobra.Command{
	Use:   "asciicast INPUT.log > OUTPUT.cast",
	Short: "Convert a log to asciicast (asciinema) format.",
	Long: `Convert a terminal log in the UML (User-mode Linux) ttylog format to
asciicast (asciinema) format.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewUMLLogSource(fd)
		header := ttylog.DefaultAsciicastHeader()
		header.Title = filepath.Base(args[0])
		sink := ttylog.NewAsciicastLogSink(cmd.OutOrStdout(), header)

		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

func createLogSource(name string, r io.Reader) ttylog.LogSource {
	switch strings.TrimPrefix(filepath.Ext(name), ".") {
	case ttylog.AsciicastFileExt:
		return ttylog.NewAsciicastLogSource(r)
	default:
		return ttylog.NewUMLLogSource(r)
	}
}

func applyMiddleware(sink ttylog.LogSink) ttylog.LogSink {
	if fixCRLF {
		sink = ttylog.NewCRLFAdapter(sink)
	}

	return sink
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(asciicastCmd)
	logsCmd.AddCommand(catCommand)

	for _, cmd := range []*cobra.Command{playCommand, asciicastCmd, catCommand} {
		cmd.Flags().BoolVar(&fixCRLF, "fix-crlf", false, "Convert bare newlines to CRLF, for logs recorded without a PTY.")
	}

	// cat doesn't allow idle time
	for _, cmd := range []*cobra.Command{playCommand} {
		cmd.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
	}
}
