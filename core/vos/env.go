package vos

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidName is returned when setting a variable whose name isn't a valid
// identifier.
var ErrInvalidName = errors.New("not a valid identifier")

// VEnv represents a virtual environment.
type VEnv interface {
	// UserHomeDir returns the current user's home directory.
	UserHomeDir() (string, error)

	// Unsetenv unsets a single environment variable.
	Unsetenv(key string) error

	// Setenv sets the value of the environment variable named by the key.
	// It returns an error, if any.
	Setenv(key, value string) error

	// LookupEnv retrieves the value of the environment variable named by the key.
	// If the variable is present in the environment the value (which may be
	// empty) is returned and the boolean is true. Otherwise the returned value
	// will be empty and the boolean will be false.
	LookupEnv(key string) (string, bool)

	// Getenv retrieves the value of the environment variable named by the key.
	// It returns the value, which will be empty if the variable is not present.
	// To distinguish between an empty value and an unset value, use LookupEnv.
	Getenv(key string) string

	// ExpandEnv replaces ${var} or $var in the string according to the values of
	// the current environment variables. References to undefined variables are
	// replaced by the empty string.
	ExpandEnv(s string) string

	// Environ returns a sorted copy of strings representing the environment, in
	// the form "key=value".
	Environ() []string
}

type EnvironFetcher interface {
	// Environ returns a copy of strings representing the environment, in the
	// form "key=value".
	Environ() []string
}

// EnvList adapts a list of "key=value" strings to an EnvironFetcher.
type EnvList []string

// Environ implements EnvironFetcher.Environ.
func (e EnvList) Environ() []string {
	return e
}

// ValidName reports whether name can be used as a variable name: a letter or
// underscore followed by letters, digits or underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SplitEnv splits a "key=value" entry, entries without a "=" have an empty
// value.
func SplitEnv(entry string) (key, value string) {
	split := strings.SplitN(entry, "=", 2)
	key = split[0]
	if len(split) > 1 {
		value = split[1]
	}
	return
}

// CopyEnv copies all the environment variables from src to dst, stopping at
// the first entry dst refuses.
func CopyEnv(dst VEnv, src EnvironFetcher) error {
	for _, e := range src.Environ() {
		key, value := SplitEnv(e)
		if err := dst.Setenv(key, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFrom creates a new environment with a copy of the environment
// variables in the original environment.
func NewMapEnvFrom(src EnvironFetcher) *MapEnv {
	return NewMapEnvFromEnvList(src.Environ())
}

// NewMapEnvFromEnvList creates an environment from "key=value" entries. Entries
// with invalid names are kept as-is, host environments contain plenty of them.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{env: make(map[string]string)}

	for _, e := range environ {
		key, value := SplitEnv(e)
		if key == "" {
			continue
		}
		out.env[key] = value
	}

	return out
}

// MapEnv implements an in-memory VEnv. Setenv rejects names that aren't valid
// identifiers.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ VEnv = (*MapEnv)(nil)

// UserHomeDir implements VEnv.UserHomeDir.
func (m *MapEnv) UserHomeDir() (string, error) {
	home, ok := m.LookupEnv("HOME")
	if !ok || home == "" {
		return "", errors.New("$HOME is not defined")
	}
	return home, nil
}

// Unsetenv implements VEnv.Unsetenv.
func (m *MapEnv) Unsetenv(key string) error {
	if !ValidName(key) {
		return ErrInvalidName
	}

	m.rw.Lock()
	defer m.rw.Unlock()
	delete(m.env, key)
	return nil
}

// Setenv implements VEnv.Setenv.
func (m *MapEnv) Setenv(key, value string) error {
	if !ValidName(key) {
		return ErrInvalidName
	}

	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv implements VEnv.LookupEnv.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv implements VEnv.Getenv.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv implements VEnv.ExpandEnv.
func (m *MapEnv) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Environ implements VEnv.Environ.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
