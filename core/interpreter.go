// Package core wires the interpreter together from a configuration: the
// command registry, the job executor, the builtin commands and the SSH
// server.
package core

import (
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync"

	"github.com/jboxsh/jbox/commands"
	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/job"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/vos"
)

// DefaultPath is used when the environment has no PATH.
const DefaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

var (
	selfExeOnce sync.Once
	selfExe     string
)

// SelfExe returns the path of the running jbox binary, or "" if it can't be
// found. Registered externals missing from disk run through it.
func SelfExe() string {
	selfExeOnce.Do(func() {
		if path, err := os.Executable(); err == nil {
			selfExe = path
		}
	})
	return selfExe
}

// InterpreterOptions holds what an interpreter needs besides configuration.
type InterpreterOptions struct {
	State *vos.State
	Stdin io.Reader
	// Stdout and Stderr also receive startup warnings.
	Stdout io.Writer
	Stderr io.Writer

	Events logger.Recorder
	Log    *log.Logger
	Color  bool
	// SelfExe overrides SelfExe(), "-" disables running applets.
	SelfExe string
}

// NewInterpreter builds an interpreter with every command registered and
// prepares its environment the way a login would: a default PATH and PS1,
// the env file loaded and the bin dir first on PATH.
func NewInterpreter(cfg *config.Configuration, opts InterpreterOptions) *shell.Interpreter {
	logger := opts.Log
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	state := opts.State

	selfExe := opts.SelfExe
	switch selfExe {
	case "":
		selfExe = SelfExe()
	case "-":
		selfExe = ""
	}

	home := state.Getenv(vos.EnvHome)
	reg := registry.New(cfg.RegistryCapacity)
	executor := &job.Executor{
		Registry:     reg,
		State:        state,
		BinDir:       config.ExpandHome(cfg.BinDir, home),
		SelfExe:      selfExe,
		KillGrace:    cfg.KillGraceDuration(),
		CaptureLimit: cfg.CaptureLimit,
		Events:       opts.Events,
		Log:          logger,
	}

	interp := shell.New(state, executor, shell.Options{
		Stdin:        opts.Stdin,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		Events:       opts.Events,
		Log:          logger,
		Color:        opts.Color,
		HistoryLimit: cfg.HistoryLimit,
	})
	commands.RegisterAll(reg, interp)
	if dropped := reg.Dropped(); dropped > 0 {
		logger.Printf("registry full at %d commands, %d dropped", reg.Cap(), dropped)
	}

	initEnvironment(cfg, state, opts.Stderr, logger)
	return interp
}

// initEnvironment is similar to login + source ~/.profile.
func initEnvironment(cfg *config.Configuration, state *vos.State, warn io.Writer, logger *log.Logger) {
	if warn == nil {
		warn = ioutil.Discard
	}
	home := state.Getenv(vos.EnvHome)

	if _, ok := state.LookupEnv(vos.EnvPath); !ok {
		_ = state.Setenv(vos.EnvPath, DefaultPath)
	}
	if _, ok := state.LookupEnv(shell.EnvPrompt); !ok && cfg.Prompt != "" {
		_ = state.Setenv(shell.EnvPrompt, cfg.Prompt)
	}
	if _, ok := state.LookupEnv(vos.EnvPWD); !ok {
		_ = state.Setenv(vos.EnvPWD, state.Getwd())
	}

	if cfg.EnvFile != "" {
		envFile := config.ExpandHome(cfg.EnvFile, home)
		if err := shell.LoadEnvFile(state, envFile, warn); err != nil {
			logger.Printf("loading %s: %v", envFile, err)
		}
	}

	if err := shell.PrependPath(state, config.ExpandHome(cfg.BinDir, home)); err != nil {
		logger.Printf("adding bin dir to PATH: %v", err)
	}
}

// HistoryFile returns where the interactive history of state is kept.
func HistoryFile(cfg *config.Configuration, state *vos.State) string {
	if cfg.HistoryFile == "" {
		return ""
	}
	return config.ExpandHome(cfg.HistoryFile, state.Getenv(vos.EnvHome))
}
