package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/anmitsu/go-shlex"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/jboxsh/jbox/core/vos/vostest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"EDITOR=vim",
		`GREETING="hello world"`,
		"export PAGER='less -R'",
		"  SPACED = trimmed  ",
		"EMPTY=",
		"MISSING",
		"1BAD=value",
		`UNTERMINATED="oops`,
	}, "\n")

	env := vos.NewMapEnv()
	warn := &bytes.Buffer{}
	require.NoError(t, LoadEnv(env, strings.NewReader(input), warn))

	assert.Equal(t, []string{
		"EDITOR=vim",
		"EMPTY=",
		"GREETING=hello world",
		"PAGER=less -R",
		"SPACED=trimmed",
	}, env.Environ())
	assert.Equal(t, strings.Join([]string{
		"jsh: env: line 8: missing '='",
		"jsh: env: line 9: 1BAD: not a valid identifier",
		"jsh: env: line 10: " + unterminatedError(t),
		"",
	}, "\n"), warn.String())
}

func unterminatedError(t *testing.T) string {
	t.Helper()
	_, err := splitForTest(`"oops`)
	require.Error(t, err)
	return err.Error()
}

func TestLoadEnvFile(t *testing.T) {
	state := vostest.NewDeterministicState()
	require.NoError(t, afero.WriteFile(state.Fs(), "/home/jsh/.env", []byte("A=1\n"), 0644))

	require.NoError(t, LoadEnvFile(state, ".env", &bytes.Buffer{}))
	assert.Equal(t, "1", state.Getenv("A"))

	assert.NoError(t, LoadEnvFile(state, "/does/not/exist", &bytes.Buffer{}))
}

func TestPrependPath(t *testing.T) {
	env := vos.NewMapEnvFromEnvList([]string{"PATH=/bin:/usr/bin"})

	require.NoError(t, PrependPath(env, "/opt/bin"))
	assert.Equal(t, "/opt/bin:/bin:/usr/bin", env.Getenv("PATH"))

	require.NoError(t, PrependPath(env, "/usr/bin"))
	assert.Equal(t, "/opt/bin:/bin:/usr/bin", env.Getenv("PATH"), "already listed")

	empty := vos.NewMapEnv()
	require.NoError(t, PrependPath(empty, "/opt/bin"))
	assert.Equal(t, "/opt/bin", empty.Getenv("PATH"))
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	cleared := false
	h.OnClear = func() { cleared = true }

	for _, line := range []string{"a", "", "b", "c", "d"} {
		h.Add(line)
	}
	assert.Equal(t, []string{"b", "c", "d"}, h.Lines())

	h.Clear()
	assert.Empty(t, h.Lines())
	assert.True(t, cleared)
}

func splitForTest(s string) ([]string, error) {
	return shlex.Split(s, true)
}
