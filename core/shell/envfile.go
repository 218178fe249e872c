package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/jboxsh/jbox/core/vos"
)

// LoadEnv reads KEY=VALUE lines into env. Blank lines and lines starting
// with # are skipped, an optional "export " prefix is allowed and values are
// unquoted like shell words. Bad lines are reported to warn and skipped.
func LoadEnv(env vos.VEnv, r io.Reader, warn io.Writer) error {
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			fmt.Fprintf(warn, "jsh: env: line %d: missing '='\n", lineNo)
			continue
		}

		words, err := shlex.Split(value, true)
		if err != nil {
			fmt.Fprintf(warn, "jsh: env: line %d: %v\n", lineNo, err)
			continue
		}

		if err := env.Setenv(strings.TrimSpace(key), strings.Join(words, " ")); err != nil {
			fmt.Fprintf(warn, "jsh: env: line %d: %s: %v\n", lineNo, key, err)
		}
	}
	return scanner.Err()
}

// LoadEnvFile loads path from the state's filesystem. A missing file isn't
// an error.
func LoadEnvFile(state *vos.State, path string, warn io.Writer) error {
	fd, err := state.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	defer fd.Close()

	return LoadEnv(state, fd, warn)
}

// PrependPath puts dir at the front of PATH unless it's already listed.
func PrependPath(env vos.VEnv, dir string) error {
	if dir == "" {
		return nil
	}

	path := env.Getenv(vos.EnvPath)
	for _, entry := range filepath.SplitList(path) {
		if entry == dir {
			return nil
		}
	}
	if path == "" {
		return env.Setenv(vos.EnvPath, dir)
	}
	return env.Setenv(vos.EnvPath, dir+string(filepath.ListSeparator)+path)
}
