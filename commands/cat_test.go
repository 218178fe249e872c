package commands

import (
	"strings"
	"testing"

	"github.com/jboxsh/jbox/core/vos/vostest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCat(t *testing.T) {
	cases := goldenTestSuite{
		"no-arg":    {[]string{"cat"}},
		"help":      {[]string{"cat", "--help"}},
		"missing":   {[]string{"cat", "does not exist.txt"}},
		"directory": {[]string{"cat", "/tmp"}},
	}

	cases.Run(t, Cat)
}

func TestCat_files(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "/foo.txt")

	// Test with missing file
	{
		cmd.Run()

		assert.NotEqual(t, 0, cmd.ExitStatus, "exit code")
	}
	{
		// Create file and
		helloWorld := []byte("Hello, world!")
		require.NoError(t, afero.WriteFile(cmd.Fs(), "/foo.txt", helloWorld, 0600))

		out := cmd.CombinedOutput()

		assert.Equal(t, 0, cmd.ExitStatus, "exit code")
		assert.Equal(t, string(helloWorld), string(out))
	}
}

func TestCat_stdin(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "-", "notes.txt", "-")
	require.NoError(t, afero.WriteFile(cmd.Fs(), "/home/jsh/notes.txt", []byte("[notes]"), 0600))
	cmd.Stdin = strings.NewReader("piped")

	out := cmd.Output()

	assert.Equal(t, 0, cmd.ExitStatus)
	assert.Equal(t, "piped[notes]", string(out), "stdin is read once")
}

func TestCat_json(t *testing.T) {
	cmd := vostest.Command(Cat, "cat", "--json", "/a.txt", "/missing")
	require.NoError(t, afero.WriteFile(cmd.Fs(), "/a.txt", []byte("line\n"), 0600))

	out := cmd.Output()

	assert.Equal(t, 1, cmd.ExitStatus)
	assert.JSONEq(t, `[
		{"path": "/a.txt", "content": "line\n"},
		{"path": "/missing", "error": "No such file or directory"}
	]`, string(out))
}
