package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jboxsh/jbox/core"
	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/ttylog"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var commandLine string

// shellCmd runs the interpreter on the local terminal.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive jsh session.",
	Long: `Start an interactive jsh session on the current terminal.

The session loads the env file, puts the bin dir first on PATH and keeps
history in the history file set in the configuration.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// openEvents opens the event log, both results are nil when it's disabled.
func openEvents(cfg *config.Configuration) (*logger.Logger, io.Closer, error) {
	fd, err := cfg.OpenEventLog()
	if err != nil || fd == nil {
		return nil, nil, err
	}
	return logger.NewJSONLinesLogRecorder(fd), fd, nil
}

func hostPTY() vos.PTY {
	pty := vos.PTY{
		IsPTY: term.IsTerminal(int(os.Stdin.Fd())),
		Term:  os.Getenv("TERM"),
	}
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		pty.Width = width
		pty.Height = height
	}
	return pty
}

func runShell(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	diagnostics := newLogger(cmd, cfg)
	color, err := useColor(os.Stderr)
	if err != nil {
		return err
	}

	state, err := vos.NewHostState()
	if err != nil {
		return err
	}
	pty := hostPTY()
	state.SetPTY(pty)

	eventLog, eventsFd, err := openEvents(cfg)
	if err != nil {
		return err
	}
	interactive := !cmd.Flags().Changed("command")
	var events logger.Recorder
	if eventLog != nil {
		defer eventsFd.Close()
		events = eventLog.NewSession()
		err := events.Record(&logger.SessionStart{
			User:        os.Getenv(shell.EnvUser),
			Term:        pty.Term,
			Interactive: interactive,
		})
		if err != nil {
			diagnostics.Printf("recording session start: %v", err)
		}
	}

	var vio vos.VIO = vos.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if interactive && pty.IsPTY {
		recorder, recording, err := startLocalRecording(cfg, vio, pty)
		if err != nil {
			diagnostics.Printf("Couldn't record session: %v", err)
		}
		if recorder != nil {
			defer recording.Close()
			defer recorder.Close()
			recorder.Log = diagnostics
			vio = recorder
		}
	}

	interp := core.NewInterpreter(cfg, core.InterpreterOptions{
		State:  state,
		Stdin:  vio.Stdin(),
		Stdout: vio.Stdout(),
		Stderr: vio.Stderr(),
		Events: events,
		Log:    diagnostics,
		Color:  color,
	})
	defer interp.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !interactive {
		go func() {
			select {
			case <-sigs:
				cancel()
			case <-ctx.Done():
			}
		}()
		return statusError(interp.RunLine(ctx, commandLine))
	}

	session, err := shell.NewSession(interp, shell.SessionConfig{
		Stdout:       vio.Stdout(),
		Stderr:       vio.Stderr(),
		HistoryFile:  core.HistoryFile(cfg, state),
		HistoryLimit: cfg.HistoryLimit,
		Width: func() int {
			if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				return width
			}
			return 80
		},
		IsTerminal: func() bool {
			return pty.IsPTY
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()

	go func() {
		for {
			select {
			case <-sigs:
				session.Interrupt()
			case <-ctx.Done():
				return
			}
		}
	}()

	return statusError(session.Run(ctx))
}

func startLocalRecording(cfg *config.Configuration, vio vos.VIO, pty vos.PTY) (*ttylog.Recorder, io.Closer, error) {
	name := fmt.Sprintf("%s-local.%s", time.Now().UTC().Format("20060102T150405Z"), ttylog.AsciicastFileExt)
	fd, err := cfg.CreateRecording(name)
	if err != nil || fd == nil {
		return nil, nil, err
	}

	header := ttylog.DefaultAsciicastHeader()
	if pty.Width > 0 {
		header.Width = pty.Width
		header.Height = pty.Height
	}
	if pty.Term != "" {
		header.Env["TERM"] = pty.Term
	}
	return ttylog.NewRecorder(vio, ttylog.NewAsciicastLogSink(fd, header)), fd, nil
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run LINE and exit with its status")
}
