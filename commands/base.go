// Package commands holds the builtin and external commands jsh ships with.
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"syscall"

	"github.com/fatih/color"
	"github.com/jboxsh/jbox/core/job"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/vos"
	getopt "github.com/pborman/getopt/v2"
)

// Host is the interpreter a builtin runs inside of.
type Host interface {
	Registry() *registry.Registry
	Jobs() *job.Table
	History() *shell.History
	Resolve(name string, env vos.VEnv) (job.Resolution, error)
	LastStatus() int
	Exit(code int)
}

var _ Host = (*shell.Interpreter)(nil)

// BuiltinFunc is a command that needs the interpreter it runs in.
type BuiltinFunc func(host Host, virtOS vos.VOS) int

// Command holds the text describing a command.
type Command struct {
	Name string
	// Use holds a one line usage string.
	Use string
	// Short is shown in command listings.
	Short string
	// Long is shown by help and --help.
	Long string
}

// Simple creates a SimpleCommand showing the command's usage.
func (c *Command) Simple() *SimpleCommand {
	return &SimpleCommand{Use: c.Use, Short: c.Long}
}

// PrintUsage writes the usage line.
func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s\n", c.Use)
}

// Descriptor creates the registry entry for the command.
func (c *Command) Descriptor(kind registry.Kind, run vos.ProcessFunc) *registry.Descriptor {
	return &registry.Descriptor{
		Name:       c.Name,
		Summary:    c.Short,
		LongHelp:   c.Long,
		Kind:       kind,
		Run:        run,
		PrintUsage: c.PrintUsage,
	}
}

// Builtin creates the registry entry for a builtin bound to host.
func (c *Command) Builtin(host Host, fn BuiltinFunc) *registry.Descriptor {
	return c.Descriptor(registry.Builtin, func(virtOS vos.VOS) int {
		return fn(host, virtOS)
	})
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a short description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(virtOS.Args(), nil)
	if err != nil {
		virtOS.LogInvalidInvocation(err)
	}

	if err != nil && !s.NeverBail {
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)

		s.PrintHelp(virtOS.Stdout())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

// Fail reports an invalid invocation on stderr prefixed with the command
// name and returns status 1.
func Fail(virtOS vos.VOS, format string, a ...interface{}) int {
	msg := fmt.Sprintf(format, a...)
	virtOS.LogInvalidInvocation(errors.New(msg))
	fmt.Fprintf(virtOS.Stderr(), "%s: %s\n", virtOS.Args()[0], msg)
	return 1
}

// fileError describes a filesystem error the way coreutils do.
func fileError(err error) string {
	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "No such file or directory"
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied"
	case errors.As(err, &errno):
		return errno.Error()
	default:
		return err.Error()
	}
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

type ColorPrinter struct {
	value  *string
	virtOS vos.VOS
}

// Init sets up the flag and virtual OS to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, virtOS vos.VOS) {
	c.virtOS = virtOS
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.virtOS.GetPTY().IsPTY
	}
}

// Sprintf formats with the color when the output should be colored. The
// shared colors are copied so the global color setting doesn't apply.
func (c *ColorPrinter) Sprintf(col *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		forced := *col
		forced.EnableColor()
		return forced.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
