package vos

import (
	"os"

	"github.com/spf13/afero"
)

// PTY describes the terminal attached to the interpreter.
type PTY struct {
	Width  int
	Height int
	Term   string
	IsPTY  bool
}

// ProcessFunc is a command entry point, it returns the exit status.
type ProcessFunc func(VOS) int

// VOS is the view of the operating system handed to a running command.
type VOS interface {
	VEnv
	VIO

	// Args holds command line arguments, including the command as Args[0].
	Args() []string
	Getpid() int

	Getwd() string
	Chdir(dir string) error

	// Open, Stat and Realpath resolve relative names against Getwd.
	Open(name string) (afero.File, error)
	Stat(name string) (os.FileInfo, error)
	Realpath(name string) (string, error)

	GetPTY() PTY

	// LogInvalidInvocation records that the command was called with
	// arguments it couldn't use.
	LogInvalidInvocation(err error)
}
