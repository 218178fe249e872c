package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, environ ...string) *vos.State {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/home/jsh/.jshell/bin", "/tmp"} {
		require.NoError(t, fs.MkdirAll(dir, 0755))
	}
	env := append([]string{"HOME=/home/jsh", "USER=jsh"}, environ...)
	return vos.NewState(fs, env, "/home/jsh")
}

type testRun struct {
	status int
	stdout string
	stderr string
}

func runLines(cfg *config.Configuration, state *vos.State, lines ...string) testRun {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	interp := NewInterpreter(cfg, InterpreterOptions{
		State:   state,
		Stdout:  stdout,
		Stderr:  stderr,
		SelfExe: "-",
	})
	defer interp.Close()

	var status int
	for _, line := range lines {
		status = interp.RunLine(context.Background(), line)
	}
	return testRun{status: status, stdout: stdout.String(), stderr: stderr.String()}
}

func TestNewInterpreter_environment(t *testing.T) {
	state := newTestState(t)
	env := "# greeting\nGREETING='hi there'\nexport EDITOR=vi\nbroken line\n"
	require.NoError(t, afero.WriteFile(state.Fs(), "/home/jsh/.jshell/env", []byte(env), 0600))

	res := runLines(config.Default(), state, "cd /tmp", "pwd")

	assert.Equal(t, 0, res.status)
	assert.Equal(t, "/tmp\n", res.stdout)
	assert.Equal(t, "jsh: env: line 4: missing '='\n", res.stderr)

	assert.Equal(t, "hi there", state.Getenv("GREETING"))
	assert.Equal(t, "vi", state.Getenv("EDITOR"))
	assert.Equal(t, "/home/jsh/.jshell/bin:"+DefaultPath, state.Getenv(vos.EnvPath))
	assert.Equal(t, `\u@\h:\w\$ `, state.Getenv(shell.EnvPrompt))
	assert.Equal(t, "/home/jsh", state.Getenv(vos.EnvOldPWD))
}

func TestNewInterpreter_keepsEnvironment(t *testing.T) {
	state := newTestState(t, "PATH=/bin", "PS1=$ ")

	cfg := config.Default()
	cfg.EnvFile = ""
	cfg.BinDir = ""
	runLines(cfg, state)

	assert.Equal(t, "/bin", state.Getenv(vos.EnvPath))
	assert.Equal(t, "$ ", state.Getenv(shell.EnvPrompt))
}

func TestNewInterpreter_export(t *testing.T) {
	state := newTestState(t)

	res := runLines(config.Default(), state, "export A=1 1X=2", "export B=$A")

	assert.Equal(t, 0, res.status)
	assert.Equal(t, "export: 1X: not a valid identifier\n", res.stderr)
	assert.Equal(t, "1", state.Getenv("A"))
	assert.Equal(t, "1", state.Getenv("B"))
}

func TestNewInterpreter_backgroundBuiltin(t *testing.T) {
	state := newTestState(t)

	res := runLines(config.Default(), state, "cd /tmp &")

	assert.Equal(t, 2, res.status)
	assert.Equal(t, "jsh: unsupported: builtin cd in background job\n", res.stderr)
	assert.Equal(t, "/home/jsh", state.Getwd())
}

func TestNewInterpreter_builtins(t *testing.T) {
	res := runLines(config.Default(), newTestState(t), "type cd exit")

	assert.Equal(t, 0, res.status)
	assert.Equal(t, "cd is a shell builtin\nexit is a shell builtin\n", res.stdout)
}

func TestNewInterpreter_registryCapacity(t *testing.T) {
	cfg := config.Default()
	cfg.RegistryCapacity = 2

	res := runLines(cfg, newTestState(t), "cd /tmp")

	assert.Equal(t, 127, res.status)
	assert.Equal(t, "jsh: cd: command not found\n", res.stderr)
}

func TestNewInterpreter_help(t *testing.T) {
	res := runLines(config.Default(), newTestState(t), "help")

	lines := strings.Split(res.stdout, "\n")
	require.Greater(t, len(lines), 3)
	assert.Equal(t, "Available commands:", lines[0])
	assert.Contains(t, lines[2], "jobs")
	assert.Contains(t, res.stdout, "sleep")
}

func TestHistoryFile(t *testing.T) {
	state := newTestState(t)
	cfg := config.Default()
	assert.Equal(t, "/home/jsh/.jshell/history", HistoryFile(cfg, state))

	cfg.HistoryFile = ""
	assert.Equal(t, "", HistoryFile(cfg, state))
}
