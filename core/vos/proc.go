package vos

import (
	"os"

	"github.com/jboxsh/jbox/core/logger"
	"github.com/spf13/afero"
)

// Proc is a command running against interpreter State.
type Proc struct {
	VEnv
	VIO

	state *State

	// ProcArgs holds command line arguments, including the command as Args[0].
	ProcArgs []string
	// PID of the process.
	PID int
	// Events receives invalid invocation reports, may be nil.
	Events logger.Recorder
}

var _ VOS = (*Proc)(nil)

// NewProc creates a process over state. Assignments ("key=value") are visible
// only to this process, all other variable changes go straight to state.
func NewProc(state *State, argv []string, assignments []string, files VIO) *Proc {
	var env VEnv = state
	if len(assignments) > 0 {
		env = &overlayEnv{State: state, local: NewMapEnvFromEnvList(assignments)}
	}
	if files == nil {
		files = NewNullIO()
	}

	return &Proc{
		VEnv:     env,
		VIO:      files,
		state:    state,
		ProcArgs: argv,
		PID:      os.Getpid(),
	}
}

// NewHostProc runs a command against the real process environment.
func NewHostProc(argv []string) (*Proc, error) {
	state, err := NewHostState()
	if err != nil {
		return nil, err
	}

	return NewProc(state, argv, nil, &hostVIO{}), nil
}

// Args implements VOS.Args.
func (p *Proc) Args() []string {
	return p.ProcArgs
}

// Getpid implements VOS.Getpid.
func (p *Proc) Getpid() int {
	return p.PID
}

// Getwd implements VOS.Getwd.
func (p *Proc) Getwd() string {
	return p.state.Getwd()
}

// Chdir implements VOS.Chdir.
func (p *Proc) Chdir(dir string) error {
	return p.state.Chdir(dir)
}

// Open implements VOS.Open.
func (p *Proc) Open(name string) (afero.File, error) {
	return p.state.Open(name)
}

// Stat implements VOS.Stat.
func (p *Proc) Stat(name string) (os.FileInfo, error) {
	return p.state.Stat(name)
}

// Realpath implements VOS.Realpath.
func (p *Proc) Realpath(name string) (string, error) {
	return p.state.Realpath(name)
}

// GetPTY implements VOS.GetPTY.
func (p *Proc) GetPTY() PTY {
	return p.state.GetPTY()
}

// LogInvalidInvocation implements VOS.LogInvalidInvocation.
func (p *Proc) LogInvalidInvocation(err error) {
	if p.Events == nil || err == nil {
		return
	}
	_ = p.Events.Record(&logger.InvalidInvocation{
		Command: p.ProcArgs,
		Error:   err.Error(),
	})
}

// overlayEnv layers per-command assignments over the shared state.
type overlayEnv struct {
	*State
	local *MapEnv
}

func (o *overlayEnv) LookupEnv(key string) (string, bool) {
	if val, ok := o.local.LookupEnv(key); ok {
		return val, ok
	}
	return o.State.LookupEnv(key)
}

func (o *overlayEnv) Getenv(key string) string {
	val, _ := o.LookupEnv(key)
	return val
}

func (o *overlayEnv) ExpandEnv(s string) string {
	return os.Expand(s, o.Getenv)
}

func (o *overlayEnv) UserHomeDir() (string, error) {
	if home := o.Getenv(EnvHome); home != "" {
		return home, nil
	}
	return o.State.UserHomeDir()
}

func (o *overlayEnv) Setenv(key, value string) error {
	_ = o.local.Unsetenv(key)
	return o.State.Setenv(key, value)
}

func (o *overlayEnv) Unsetenv(key string) error {
	_ = o.local.Unsetenv(key)
	return o.State.Unsetenv(key)
}

func (o *overlayEnv) Environ() []string {
	merged := NewMapEnvFromEnvList(o.State.Environ())
	for _, e := range o.local.Environ() {
		key, value := SplitEnv(e)
		merged.env[key] = value
	}

	return merged.Environ()
}
