// Package vostest runs commands against an in-memory OS for tests.
package vostest

import (
	"bytes"
	"io"

	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/afero"
)

// DefaultEnv is the environment every test process starts with.
var DefaultEnv = []string{
	"HOME=/home/jsh",
	"PATH=/bin:/usr/bin",
	"USER=jsh",
}

// NewDeterministicState creates interpreter state over an empty in-memory
// filesystem with the working directory set to HOME.
func NewDeterministicState() *vos.State {
	memFs := afero.NewMemMapFs()
	_ = memFs.MkdirAll("/home/jsh", 0755)
	_ = memFs.MkdirAll("/tmp", 0777)

	return vos.NewState(memFs, DefaultEnv, "/home/jsh")
}

// Cmd is similar to exec.Cmd.
type Cmd struct {
	// Process function
	Process vos.ProcessFunc
	// Process arguments, the first argument should be the process name.
	Argv []string
	// Assignments are "key=value" pairs visible only to the process.
	Assignments []string
	// State the process runs against, shared across runs of the same Cmd.
	State *vos.State

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Events receives the process's events, may be nil.
	Events logger.Recorder

	ExitStatus int
}

// Command creates a test command with fresh deterministic state.
func Command(process vos.ProcessFunc, name string, arg ...string) *Cmd {
	return &Cmd{
		Process: process,
		Argv:    append([]string{name}, arg...),
		State:   NewDeterministicState(),
	}
}

// Fs returns the in-memory filesystem backing the command.
func (c *Cmd) Fs() afero.Fs {
	return c.State.Fs()
}

// Output runs the command and returns its standard output.
func (c *Cmd) Output() []byte {
	buf := &bytes.Buffer{}
	c.Stdout = buf

	c.Run()
	return buf.Bytes()
}

// CombinedOutput runs the command and returns stdout and stderr interleaved.
func (c *Cmd) CombinedOutput() []byte {
	buf := &bytes.Buffer{}
	c.Stdout = buf
	c.Stderr = buf

	c.Run()
	return buf.Bytes()
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() int {
	proc := vos.NewProc(c.State, c.Argv, c.Assignments, vos.NewVIOAdapter(c.Stdin, c.Stdout, c.Stderr))
	proc.Events = c.Events
	c.ExitStatus = c.Process(proc)
	return c.ExitStatus
}
