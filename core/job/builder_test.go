package job

import (
	"errors"
	"strings"
	"testing"

	"github.com/jboxsh/jbox/core/vos/vostest"
	"github.com/jboxsh/jbox/core/wordexp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"
)

func parseStages(t *testing.T, line string) []*syntax.Stmt {
	t.Helper()

	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	require.NoError(t, err)
	require.Len(t, file.Stmts, 1)

	stages, err := Stages(file.Stmts[0])
	require.NoError(t, err)
	return stages
}

func newTestBuilder() *Builder {
	state := vostest.NewDeterministicState()
	_ = state.Setenv("GREETING", "hello world")
	return NewBuilder(wordexp.New(state))
}

func argvs(vec *CommandVector) [][]string {
	var out [][]string
	for _, cmd := range vec.Commands {
		out = append(out, cmd.Argv())
	}
	return out
}

func TestBuilder_Build(t *testing.T) {
	cases := map[string]struct {
		line string
		want [][]string
		text string
	}{
		"single": {
			line: "echo hi",
			want: [][]string{{"echo", "hi"}},
			text: "echo hi",
		},
		"pipeline": {
			line: "cat a|grep  b | wc -l",
			want: [][]string{{"cat", "a"}, {"grep", "b"}, {"wc", "-l"}},
			text: "cat a | grep b | wc -l",
		},
		"field splitting": {
			line: "echo $GREETING",
			want: [][]string{{"echo", "hello", "world"}},
			text: "echo $GREETING",
		},
		"unset variable": {
			line: "echo $UNSET_VAR",
			want: [][]string{{"echo"}},
			text: "echo $UNSET_VAR",
		},
		"quoted unset variable": {
			line: `echo "$UNSET_VAR" x`,
			want: [][]string{{"echo", "", "x"}},
			text: `echo "$UNSET_VAR" x`,
		},
		"background": {
			line: "sleep 1 &",
			want: [][]string{{"sleep", "1"}},
			text: "sleep 1",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			vec, err := newTestBuilder().Build(parseStages(t, tc.line))
			require.NoError(t, err)

			assert.Equal(t, tc.want, argvs(vec))
			assert.Equal(t, tc.text, vec.Text)
			assert.Equal(t, len(tc.want), vec.Len())
		})
	}
}

func TestBuilder_Build_errors(t *testing.T) {
	cases := map[string]struct {
		line    string
		stage   int
		word    int
		wantErr string
		is      error
	}{
		"empty first stage": {
			line:    "$UNSET_VAR",
			stage:   0,
			word:    -1,
			wantErr: "syntax error: empty command",
			is:      ErrEmptyCommand,
		},
		"empty later stage": {
			line:    "echo ok | $UNSET_VAR | cat",
			stage:   1,
			word:    -1,
			wantErr: "syntax error: empty command",
			is:      ErrEmptyCommand,
		},
		"command substitution": {
			line:    "echo a $(date) b",
			stage:   0,
			word:    2,
			wantErr: "command substitution is disabled",
			is:      wordexp.ErrCommandSubstitution,
		},
		"multiple output redirects": {
			line:    "echo > a > b",
			stage:   0,
			word:    -1,
			wantErr: "multiple output redirects",
		},
		"multiple input redirects": {
			line:    "cat < a < b",
			stage:   0,
			word:    -1,
			wantErr: "multiple input redirects",
		},
		"multiple error redirects": {
			line:    "cat 2> a 2>&1",
			stage:   0,
			word:    -1,
			wantErr: "multiple error redirects",
		},
		"file after stderr alias": {
			line:    "cat 2>&1 > out.txt",
			stage:   0,
			word:    -1,
			wantErr: "unsupported: >out.txt after 2>&1",
			is:      ErrUnsupported,
		},
		"file after stdout alias": {
			line:    "echo oops >&2 2> err.txt",
			stage:   0,
			word:    -1,
			wantErr: "unsupported: 2>err.txt after >&2",
			is:      ErrUnsupported,
		},
		"ambiguous redirect": {
			line:    "echo > $GREETING",
			stage:   0,
			word:    -1,
			wantErr: "$GREETING: ambiguous redirect",
		},
		"compound command": {
			line:    "if true; then echo; fi",
			stage:   0,
			word:    -1,
			wantErr: "unsupported: if",
			is:      ErrUnsupported,
		},
		"negated": {
			line:    "! true",
			stage:   0,
			word:    -1,
			wantErr: "unsupported: !",
			is:      ErrUnsupported,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			vec, err := newTestBuilder().Build(parseStages(t, tc.line))
			require.Error(t, err)
			assert.Nil(t, vec)

			var buildErr *BuildError
			require.True(t, errors.As(err, &buildErr))
			assert.Equal(t, tc.stage, buildErr.Stage)
			assert.Equal(t, tc.word, buildErr.Word)
			assert.Contains(t, err.Error(), tc.wantErr)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestBuilder_Build_redirects(t *testing.T) {
	cases := map[string]struct {
		line   string
		stdin  *Redirect
		stdout *Redirect
		stderr *Redirect
	}{
		"output": {
			line:   "echo hi > out.txt",
			stdout: &Redirect{Op: RedirectOut, Target: "out.txt"},
		},
		"append": {
			line:   "echo hi >> out.txt",
			stdout: &Redirect{Op: RedirectAppend, Target: "out.txt"},
		},
		"input": {
			line:  "cat < in.txt",
			stdin: &Redirect{Op: RedirectIn, Target: "in.txt"},
		},
		"stderr file": {
			line:   "cat 2> err.txt",
			stderr: &Redirect{Op: RedirectOut, Target: "err.txt"},
		},
		"stderr append": {
			line:   "cat 2>> err.txt",
			stderr: &Redirect{Op: RedirectAppend, Target: "err.txt"},
		},
		"stderr to stdout": {
			line:   "cat > all.txt 2>&1",
			stdout: &Redirect{Op: RedirectOut, Target: "all.txt"},
			stderr: &Redirect{Op: RedirectToStdout},
		},
		"stderr file then stdout alias": {
			line:   "echo oops 2> err.txt >&2",
			stdout: &Redirect{Op: RedirectToStderr},
			stderr: &Redirect{Op: RedirectOut, Target: "err.txt"},
		},
		"stdout to stderr": {
			line:   "echo oops >&2",
			stdout: &Redirect{Op: RedirectToStderr},
		},
		"all": {
			line:   "cat &> all.txt",
			stdout: &Redirect{Op: RedirectOut, Target: "all.txt"},
			stderr: &Redirect{Op: RedirectToStdout},
		},
		"expanded target": {
			line:   "echo hi > $HOME/out.txt",
			stdout: &Redirect{Op: RedirectOut, Target: "/home/jsh/out.txt"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			vec, err := newTestBuilder().Build(parseStages(t, tc.line))
			require.NoError(t, err)
			require.Equal(t, 1, vec.Len())

			cmd := vec.Commands[0]
			assert.Equal(t, tc.stdin, cmd.Stdin)
			assert.Equal(t, tc.stdout, cmd.Stdout)
			assert.Equal(t, tc.stderr, cmd.Stderr)
		})
	}
}

func TestBuilder_Build_assigns(t *testing.T) {
	vec, err := newTestBuilder().Build(parseStages(t, `LANG=C NAME="$GREETING" EMPTY= env`))
	require.NoError(t, err)

	cmd := vec.Commands[0]
	assert.Equal(t, []string{"env"}, cmd.Argv())
	assert.Equal(t, []string{"LANG=C", "NAME=hello world", "EMPTY="}, cmd.Assigns)
}

func TestBuilder_Build_provenance(t *testing.T) {
	vec, err := newTestBuilder().Build(parseStages(t, "echo $GREETING"))
	require.NoError(t, err)

	assert.Equal(t, []wordexp.Token{
		{Value: "echo", Provenance: wordexp.Literal},
		{Value: "hello", Provenance: wordexp.Expanded},
		{Value: "world", Provenance: wordexp.Expanded},
	}, vec.Commands[0].Args)
}

func TestStages_pipeAll(t *testing.T) {
	file, err := syntax.NewParser().Parse(strings.NewReader("a |& b"), "")
	require.NoError(t, err)

	_, err = Stages(file.Stmts[0])
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCommandVector_Release(t *testing.T) {
	vec, err := newTestBuilder().Build(parseStages(t, "echo a | cat"))
	require.NoError(t, err)

	vec.Release()
	vec.Release()

	assert.Equal(t, 0, vec.Len())
}
