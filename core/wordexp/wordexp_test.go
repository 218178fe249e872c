package wordexp

import (
	"errors"
	"strings"
	"testing"

	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"
)

func parseWords(t *testing.T, src string) []*syntax.Word {
	t.Helper()

	file, err := syntax.NewParser().Parse(strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, file.Stmts, 1)
	call, ok := file.Stmts[0].Cmd.(*syntax.CallExpr)
	require.True(t, ok, "not a simple command: %q", src)
	return call.Args
}

func newTestExpander(t *testing.T) (*Expander, *vos.State) {
	t.Helper()

	memFs := afero.NewMemMapFs()
	for _, name := range []string{"/home/jsh/a.txt", "/home/jsh/b.txt", "/home/jsh/c.log"} {
		require.NoError(t, afero.WriteFile(memFs, name, nil, 0644))
	}
	state := vos.NewState(memFs, []string{"HOME=/home/jsh", "GREETING=hello world"}, "/home/jsh")
	return New(state), state
}

func values(tokens []Token) []string {
	out := []string{}
	for _, tok := range tokens {
		out = append(out, tok.Value)
	}
	return out
}

func TestExpander_ExpandAll(t *testing.T) {
	cases := map[string]struct {
		src  string
		want []string
	}{
		"literal":         {`echo hello`, []string{"echo", "hello"}},
		"variable":        {`echo $HOME`, []string{"echo", "/home/jsh"}},
		"braces":          {`echo ${HOME}/bin`, []string{"echo", "/home/jsh/bin"}},
		"unset":           {`echo $UNSET_VAR`, []string{"echo"}},
		"unset quoted":    {`echo "$UNSET_VAR"`, []string{"echo", ""}},
		"field splitting": {`echo $GREETING`, []string{"echo", "hello", "world"}},
		"quoted":          {`echo "$GREETING"`, []string{"echo", "hello world"}},
		"single quotes":   {`echo '$HOME'`, []string{"echo", "$HOME"}},
		"tilde":           {`echo ~/notes`, []string{"echo", "/home/jsh/notes"}},
		"glob":            {`echo *.txt`, []string{"echo", "a.txt", "b.txt"}},
		"glob no match":   {`echo *.md`, []string{"echo", "*.md"}},
		"quoted glob":     {`echo "*.txt"`, []string{"echo", "*.txt"}},
		"arithmetic":      {`echo $((1 + 2))`, []string{"echo", "3"}},
		"default":         {`echo ${UNSET_VAR:-fallback}`, []string{"echo", "fallback"}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			expander, _ := newTestExpander(t)

			tokens, err := expander.ExpandAll(parseWords(t, tc.src))
			assert.NoError(t, err)
			assert.Equal(t, tc.want, values(tokens))
		})
	}
}

func TestExpander_provenance(t *testing.T) {
	expander, _ := newTestExpander(t)

	cases := map[string]Provenance{
		`plain`:       Literal,
		`'single'`:    Literal,
		`"double"`:    Literal,
		`mixed'q'"d"`: Literal,
		`""`:          Literal,
		`$HOME`:       Expanded,
		`"$HOME"`:     Expanded,
		`x"${HOME}"`:  Expanded,
		`~/a.txt`:     Expanded,
		`*.log`:       Expanded,
		`'*.txt'`:     Literal,
	}

	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			tokens, err := expander.ExpandAll(parseWords(t, src))
			require.NoError(t, err)
			require.Len(t, tokens, 1)
			assert.Equal(t, want, tokens[0].Provenance)
		})
	}
}

func TestExpander_modes(t *testing.T) {
	expander, _ := newTestExpander(t)
	words := parseWords(t, `first second`)

	assert.Equal(t, Replace, ModeFor(nil))

	acc, err := expander.Expand(words[0], nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, values(acc))
	assert.Equal(t, Append, ModeFor(acc))

	acc, err = expander.Expand(words[1], acc)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, values(acc))
}

func TestExpander_commandSubstitution(t *testing.T) {
	for _, src := range []string{`echo ok $(date)`, "echo ok `date`", `echo ok "$(date)"`, `echo ok <(date)`} {
		t.Run(src, func(t *testing.T) {
			expander, _ := newTestExpander(t)

			tokens, err := expander.ExpandAll(parseWords(t, src))

			var expErr *Error
			require.True(t, errors.As(err, &expErr), "got %v", err)
			assert.True(t,
				errors.Is(err, ErrCommandSubstitution) || errors.Is(err, ErrProcessSubstitution),
				"got %v", err)
			// Tokens expanded before the failing word survive.
			assert.Equal(t, []string{"echo", "ok"}, values(tokens))
		})
	}
}

func TestExpander_errorKeepsAccumulator(t *testing.T) {
	expander, _ := newTestExpander(t)
	words := parseWords(t, `keep ${UNSET_VAR:?is required}`)

	acc, err := expander.Expand(words[0], nil)
	require.NoError(t, err)

	acc, err = expander.Expand(words[1], acc)
	assert.Error(t, err)
	assert.Equal(t, []string{"keep"}, values(acc))
}

func TestExpander_seesMutations(t *testing.T) {
	expander, state := newTestExpander(t)
	words := parseWords(t, `$COLOR $COLOR`)

	acc, err := expander.Expand(words[0], nil)
	require.NoError(t, err)
	assert.Empty(t, acc)

	require.NoError(t, state.Setenv("COLOR", "blue"))
	acc, err = expander.Expand(words[1], acc)
	require.NoError(t, err)
	assert.Equal(t, []string{"blue"}, values(acc))
}

func TestExpander_specials(t *testing.T) {
	expander, _ := newTestExpander(t)
	expander.Specials = func() []string { return StatusSpecials(42) }

	tokens, err := expander.ExpandAll(parseWords(t, `echo $?`))
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "42"}, values(tokens))
}

func TestExpander_noGlob(t *testing.T) {
	expander, _ := newTestExpander(t)
	expander.NoGlob = true

	tokens, err := expander.ExpandAll(parseWords(t, `echo *.txt`))
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "*.txt"}, values(tokens))
}

func TestExpander_Value(t *testing.T) {
	expander, _ := newTestExpander(t)

	out, err := expander.Value(parseWords(t, `$GREETING`)[0])
	assert.NoError(t, err)
	assert.Equal(t, "hello world", out)

	_, err = expander.Value(parseWords(t, `$(pwd)`)[0])
	assert.True(t, errors.Is(err, ErrCommandSubstitution))
}

func TestExpander_Single(t *testing.T) {
	expander, _ := newTestExpander(t)

	out, err := expander.Single(parseWords(t, `~/out.txt`)[0])
	assert.NoError(t, err)
	assert.Equal(t, "/home/jsh/out.txt", out)

	_, err = expander.Single(parseWords(t, `*.txt`)[0])
	assert.EqualError(t, err, "*.txt: ambiguous redirect")

	_, err = expander.Single(parseWords(t, `$UNSET_VAR`)[0])
	assert.EqualError(t, err, "$UNSET_VAR: ambiguous redirect")
}

func TestSource(t *testing.T) {
	assert.Equal(t, `"$HOME"/x`, Source(parseWords(t, `"$HOME"/x`)[0]))
	assert.Equal(t, "", Source(nil))
}
