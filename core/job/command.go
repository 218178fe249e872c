package job

import (
	"strings"
	"sync"

	"github.com/jboxsh/jbox/core/wordexp"
)

// RedirectOp is the kind of a stream redirection.
type RedirectOp int

const (
	// RedirectIn reads the stream from a file.
	RedirectIn RedirectOp = iota
	// RedirectOut truncates and writes a file.
	RedirectOut
	// RedirectAppend appends to a file.
	RedirectAppend
	// RedirectToStdout sends the stream wherever stdout goes (2>&1).
	RedirectToStdout
	// RedirectToStderr sends the stream wherever stderr goes (>&2).
	RedirectToStderr
)

func (op RedirectOp) String() string {
	switch op {
	case RedirectIn:
		return "<"
	case RedirectOut:
		return ">"
	case RedirectAppend:
		return ">>"
	case RedirectToStdout:
		return ">&1"
	case RedirectToStderr:
		return ">&2"
	default:
		return "?"
	}
}

// Redirect is one stream redirection of a stage.
type Redirect struct {
	Op RedirectOp
	// Target is the expanded file name, empty for stream aliases.
	Target string
}

// Command is one pipeline stage.
type Command struct {
	// Args holds the command name followed by its arguments, never empty.
	Args []wordexp.Token
	// Assigns holds "NAME=value" pairs visible only to this stage.
	Assigns []string

	Stdin  *Redirect
	Stdout *Redirect
	Stderr *Redirect
}

// Name returns the command name.
func (c *Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0].Value
}

// Argv returns the argument vector including the name.
func (c *Command) Argv() []string {
	argv := make([]string, len(c.Args))
	for i, tok := range c.Args {
		argv[i] = tok.Value
	}
	return argv
}

func (c *Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// CommandVector is one pipeline, stdout of each command feeds stdin of the
// next.
type CommandVector struct {
	Commands []*Command
	// Text is the pipeline as written, used for job listings and logs.
	Text string

	release sync.Once
}

// Len returns the number of stages.
func (v *CommandVector) Len() int {
	return len(v.Commands)
}

// Release drops the commands and their tokens. It's safe to call more than
// once.
func (v *CommandVector) Release() {
	v.release.Do(func() {
		for i := range v.Commands {
			v.Commands[i] = nil
		}
		v.Commands = nil
	})
}
