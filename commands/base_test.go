package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jboxsh/jbox/core/job"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/jboxsh/jbox/core/vos/vostest"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Args []string
}

func (gts goldenTestSuite) Run(t *testing.T, cmd vos.ProcessFunc) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			cmd := vostest.Command(cmd, tc.Args[0], tc.Args[1:]...)
			out := cmd.CombinedOutput()

			g.Assert(t, tn, out)
		})
	}
}

// bind runs a builtin without an interpreter behind it.
func bind(fn BuiltinFunc, host Host) vos.ProcessFunc {
	return func(virtOS vos.VOS) int {
		return fn(host, virtOS)
	}
}

type testShell struct {
	*shell.Interpreter

	state  *vos.State
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestShell creates an interpreter over state with every builtin
// registered. Echo is registered as a builtin so it runs without a binary.
func newTestShell(t *testing.T, state *vos.State) *testShell {
	t.Helper()

	ts := &testShell{
		state:  state,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	reg := registry.New(0)
	reg.Register(echoCommand.Descriptor(registry.Builtin, Echo))

	executor := &job.Executor{Registry: reg, State: state}
	ts.Interpreter = shell.New(state, executor, shell.Options{
		Stdout: ts.stdout,
		Stderr: ts.stderr,
	})
	RegisterAll(reg, ts.Interpreter)
	t.Cleanup(func() { ts.Close() })
	return ts
}

// run runs a line and returns its status, stdout and stderr.
func (ts *testShell) run(line string) (int, string, string) {
	ts.stdout.Reset()
	ts.stderr.Reset()
	status := ts.RunLine(context.Background(), line)
	return status, ts.stdout.String(), ts.stderr.String()
}

type eventList []logger.Event

func (e *eventList) Record(event logger.Event) error {
	*e = append(*e, event)
	return nil
}

func TestRegisterAll(t *testing.T) {
	reg := registry.New(0)
	RegisterAll(reg, nil)

	var names []string
	var kinds []registry.Kind
	reg.ForEach(func(desc registry.Descriptor) {
		names = append(names, desc.Name)
		kinds = append(kinds, desc.Kind)
		assert.NotEmpty(t, desc.Summary, desc.Name)
		assert.NotEmpty(t, desc.LongHelp, desc.Name)
		assert.NotNil(t, desc.Run, desc.Name)
		assert.NotNil(t, desc.PrintUsage, desc.Name)
	})

	assert.Equal(t, []string{
		"jobs", "kill", "wait", "cd", "pwd", "env", "export", "unset", "type", "help", "history", "exit",
		"echo", "cat", "date", "sleep",
	}, names)
	for i, kind := range kinds {
		want := registry.Builtin
		if i >= 12 {
			want = registry.External
		}
		assert.Equal(t, want, kind, names[i])
	}
}

func TestApplet(t *testing.T) {
	desc, ok := Applet("cat")
	require.True(t, ok)
	assert.Equal(t, registry.External, desc.Kind)

	_, ok = Applet("cd")
	assert.False(t, ok, "builtins can't run as applets")

	_, ok = Applet("nope")
	assert.False(t, ok)
}

func TestCommand_PrintUsage(t *testing.T) {
	buf := &bytes.Buffer{}
	cdCommand.PrintUsage(buf)

	assert.Equal(t, "usage: cd [DIR | -]\n", buf.String())
}

func TestSimpleCommand_invalidInvocation(t *testing.T) {
	events := &eventList{}
	cmd := vostest.Command(Echo, "echo", "-z")
	cmd.Events = events

	out := cmd.Output()

	assert.Equal(t, 1, cmd.ExitStatus)
	assert.Contains(t, string(out), "usage: echo")
	assert.Equal(t, eventList{
		&logger.InvalidInvocation{Command: []string{"echo", "-z"}, Error: "unknown option: -z"},
	}, *events)
}

func TestFail(t *testing.T) {
	events := &eventList{}
	cmd := vostest.Command(func(virtOS vos.VOS) int {
		return Fail(virtOS, "%s: bad thing", "arg")
	}, "thing")
	cmd.Events = events

	out := cmd.CombinedOutput()

	assert.Equal(t, 1, cmd.ExitStatus)
	assert.Equal(t, "thing: arg: bad thing\n", string(out))
	assert.Len(t, *events, 1)
}

func TestFileError(t *testing.T) {
	_, err := vostest.NewDeterministicState().Open("/missing")
	assert.Equal(t, "No such file or directory", fileError(err))
	assert.Equal(t, "other", fileError(errors.New("other")))
}

func TestColorPrinter(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"default": {[]string{"help"}, "x"},
		"never":   {[]string{"help", "--color=never"}, "x"},
		"always":  {[]string{"help", "--color=always"}, "\x1b[34;1mx\x1b[0m"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			var got string
			cmd := vostest.Command(func(virtOS vos.VOS) int {
				sc := &SimpleCommand{Use: "help"}
				var colors ColorPrinter
				colors.Init(sc.Flags(), virtOS)
				return sc.Run(virtOS, func() int {
					got = colors.Sprintf(ColorBoldBlue, "%s", "x")
					return 0
				})
			}, tc.args[0], tc.args[1:]...)
			cmd.Run()

			assert.Equal(t, 0, cmd.ExitStatus)
			assert.Equal(t, tc.want, got)
		})
	}
}
