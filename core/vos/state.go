package vos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jboxsh/jbox/third_party/realpath"
	"github.com/spf13/afero"
)

const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
	EnvPath   = "PATH"
)

// State is the interpreter's process-wide state: its variables, working
// directory and filesystem. Builtins see it directly, external commands get a
// snapshot of Environ when they start.
//
// Variables are only changed through Setenv and Unsetenv.
type State struct {
	*MapEnv

	fs afero.Fs

	mu  sync.RWMutex
	dir string
	pty PTY
}

// NewState creates interpreter state over fs with the given variables and
// working directory.
func NewState(fs afero.Fs, environ []string, dir string) *State {
	if dir == "" {
		dir = "/"
	}

	return &State{
		MapEnv: NewMapEnvFromEnvList(environ),
		fs:     fs,
		dir:    filepath.Clean(dir),
	}
}

// NewHostState creates state mirroring the running process: the OS
// filesystem, os.Environ and the current directory.
func NewHostState() (*State, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return NewState(afero.NewOsFs(), os.Environ(), wd), nil
}

// Fs returns the filesystem commands and redirects use.
func (s *State) Fs() afero.Fs {
	return s.fs
}

// Getwd returns the working directory.
func (s *State) Getwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Abs resolves name against the working directory.
func (s *State) Abs(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(s.Getwd(), name)
}

// Chdir changes the working directory and updates PWD and OLDPWD.
func (s *State) Chdir(dir string) error {
	dir = s.Abs(dir)

	stat, err := s.fs.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%s: No such file or directory", dir)
	case err != nil:
		return fmt.Errorf("%s: %v", dir, err)
	case !stat.IsDir():
		return fmt.Errorf("%s: Not a directory", dir)
	}

	s.mu.Lock()
	old := s.dir
	s.dir = dir
	s.mu.Unlock()

	_ = s.Setenv(EnvOldPWD, old)
	_ = s.Setenv(EnvPWD, dir)
	return nil
}

// Open opens the named file for reading.
func (s *State) Open(name string) (afero.File, error) {
	return s.fs.Open(s.Abs(name))
}

// OpenFile is the generalized open call.
func (s *State) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return s.fs.OpenFile(s.Abs(name), flag, perm)
}

// Stat returns information about the named file.
func (s *State) Stat(name string) (os.FileInfo, error) {
	return s.fs.Stat(s.Abs(name))
}

// Realpath resolves name to an absolute path without symbolic links.
func (s *State) Realpath(name string) (string, error) {
	return realpath.Realpath(s.fs, s.Getwd(), name)
}

// SetPTY records the terminal attached to the interpreter.
func (s *State) SetPTY(pty PTY) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pty = pty
}

// GetPTY returns the terminal attached to the interpreter.
func (s *State) GetPTY() PTY {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pty
}
