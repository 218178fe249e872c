package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/jboxsh/jbox/commands"
	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	cfgPath   string
	debug     bool
	colorMode string
)

// exitStatus is returned by commands that finish with a non-zero status.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func statusError(status int) error {
	if status == 0 {
		return nil
	}
	return exitStatus(status)
}

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		if debug {
			log.Println("Couldn't load config: did you run init? Using defaults.")
		}
		return config.Default(), nil
	}

	return configuration, err
}

// newLogger returns the diagnostic logger, it discards everything unless
// debugging is on.
func newLogger(cmd *cobra.Command, cfg *config.Configuration) *log.Logger {
	if debug || cfg.Debug {
		return log.New(cmd.ErrOrStderr(), "[jsh] ", log.LstdFlags)
	}
	return log.New(ioutil.Discard, "", 0)
}

func useColor(f *os.File) (bool, error) {
	switch colorMode {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case colorAuto:
		return term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color %q, must be one of always, auto or never", colorMode)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jbox [-c LINE]",
	Short: "A small job-control shell",
	Long: `jbox runs jsh, a small interactive shell with pipelines, redirects and
background jobs. With -c it runs a single line and exits with its status.

jbox is also a multi-call binary: invoked as one of its external commands
(e.g. through a symlink named cat) it runs that command.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE:          runShell,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if desc, ok := commands.Applet(filepath.Base(os.Args[0])); ok {
		proc, err := vos.NewHostProc(os.Args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", desc.Name, err)
			os.Exit(1)
		}
		os.Exit(desc.Run(proc))
	}

	err := rootCmd.Execute()
	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", colorAuto, "colorize errors (always|auto|never)")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run LINE and exit with its status")
}
