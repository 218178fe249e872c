package vos

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories of
// pathList, a PATH style list. If file contains a slash, it is tried directly
// and pathList is not consulted. Relative directories and files are resolved
// against the state's working directory. The result is always absolute.
//
// A file that exists but isn't executable is reported as fs.ErrPermission
// unless a later directory holds an executable of the same name.
func LookPath(state *State, pathList, file string) (string, error) {
	if strings.Contains(file, "/") {
		abs := state.Abs(file)
		if err := findExecutable(state.Fs(), abs); err != nil {
			return "", err
		}
		return abs, nil
	}

	var firstErr error
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := state.Abs(filepath.Join(dir, file))
		err := findExecutable(state.Fs(), path)
		if err == nil {
			return path, nil
		}
		if firstErr == nil && !errors.Is(err, ErrNotFound) {
			firstErr = err
		}
	}

	if firstErr != nil {
		return "", firstErr
	}
	return "", ErrNotFound
}
