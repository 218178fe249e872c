// This software is distributed under the MIT License.
//
// You should have received a copy of the MIT License along with this program.
// If not, see <https://opensource.org/licenses/MIT>

// Package realpath resolves paths the way realpath(3) does, over an afero
// filesystem.
package realpath

import (
	"errors"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// MaxLinks is the number of symbolic links followed before giving up.
const MaxLinks = 16

var (
	ErrTooManyLinks = errors.New("too many levels of symbolic links")
	errNotLink      = errors.New("invalid argument")
)

// Realpath returns the absolute path of name with every symbolic link, "."
// and ".." resolved. Relative names are resolved against wd. Every
// component must exist.
func Realpath(fsys afero.Fs, wd, name string) (string, error) {
	if name == "" {
		name = "."
	}
	if !path.IsAbs(name) {
		name = wd + "/" + name
	}

	resolved := "/"
	pending := strings.Split(name, "/")
	links := 0
	for len(pending) > 0 {
		component := pending[0]
		pending = pending[1:]

		switch component {
		case "", ".":
			continue
		case "..":
			resolved = path.Dir(resolved)
			continue
		}

		next := path.Join(resolved, component)
		fi, err := lstat(fsys, next)
		if err != nil {
			return "", err
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > MaxLinks {
			return "", &os.PathError{Op: "realpath", Path: name, Err: ErrTooManyLinks}
		}
		target, err := readlink(fsys, next)
		if err != nil {
			return "", err
		}
		if path.IsAbs(target) {
			resolved = "/"
		}
		pending = append(strings.Split(target, "/"), pending...)
	}

	return resolved, nil
}

func lstat(fsys afero.Fs, name string) (os.FileInfo, error) {
	if lstater, ok := fsys.(afero.Lstater); ok {
		fi, _, err := lstater.LstatIfPossible(name)
		return fi, err
	}
	return fsys.Stat(name)
}

func readlink(fsys afero.Fs, name string) (string, error) {
	if reader, ok := fsys.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: errNotLink}
}
