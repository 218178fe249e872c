// Package wordexp expands shell words into argument tokens: parameter
// substitution, tilde and arithmetic expansion, field splitting, globbing and
// quote removal. Command and process substitution are refused.
package wordexp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrCommandSubstitution is returned for $(...) and `...` inside a word.
	ErrCommandSubstitution = errors.New("command substitution is disabled")
	// ErrProcessSubstitution is returned for <(...) and >(...) inside a word.
	ErrProcessSubstitution = errors.New("process substitution is disabled")
)

// Provenance records whether a token came from literal text or expansion.
type Provenance int

const (
	Literal Provenance = iota
	Expanded
)

func (p Provenance) String() string {
	if p == Literal {
		return "literal"
	}
	return "expanded"
}

// Token is one resulting argument.
type Token struct {
	Value      string
	Provenance Provenance
}

// Mode selects how Expand treats the accumulator.
type Mode int

const (
	// Replace starts a new token list, used for the first word of a list.
	Replace Mode = iota
	// Append extends the tokens already accumulated.
	Append
)

// ModeFor picks Replace for an empty accumulator and Append otherwise.
func ModeFor(acc []Token) Mode {
	if len(acc) == 0 {
		return Replace
	}
	return Append
}

// Error reports a word that failed to expand.
type Error struct {
	// Word is the source text of the failing word.
	Word string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Word, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Expander expands words against interpreter state. Variables are read from
// a fresh snapshot for every word so changes made between words are seen.
type Expander struct {
	state *vos.State

	// Specials returns extra "name=value" pairs visible to expansion only,
	// like "?" and "$".
	Specials func() []string
	// NoGlob disables pathname expansion.
	NoGlob bool
}

// New creates an expander reading state.
func New(state *vos.State) *Expander {
	return &Expander{state: state}
}

func (e *Expander) config() *expand.Config {
	pairs := e.state.Environ()
	pairs = append(pairs, vos.EnvPWD+"="+e.state.Getwd())
	if e.Specials != nil {
		pairs = append(pairs, e.Specials()...)
	}

	cfg := &expand.Config{
		Env: expand.ListEnviron(pairs...),
		CmdSubst: func(io.Writer, *syntax.CmdSubst) error {
			return ErrCommandSubstitution
		},
		ProcSubst: func(*syntax.ProcSubst) (string, error) {
			return "", ErrProcessSubstitution
		},
	}
	if !e.NoGlob {
		cfg.ReadDir2 = e.readDir
	}
	return cfg
}

func (e *Expander) readDir(dir string) ([]fs.DirEntry, error) {
	infos, err := afero.ReadDir(e.state.Fs(), e.state.Abs(dir))
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

// Expand expands word and returns the accumulator with the results added. In
// Replace mode the result holds only this word's tokens, in Append mode they
// follow the existing ones. On error the accumulator is returned unchanged.
func (e *Expander) Expand(word *syntax.Word, acc []Token) ([]Token, error) {
	fields, err := expand.Fields(e.config(), word)
	if err != nil {
		return acc, &Error{Word: Source(word), Err: err}
	}

	provenance := Expanded
	if isLiteral(word.Parts) {
		provenance = Literal
	}

	var out []Token
	switch ModeFor(acc) {
	case Replace:
		out = make([]Token, 0, len(fields))
	case Append:
		out = acc
	}
	for _, field := range fields {
		out = append(out, Token{Value: field, Provenance: provenance})
	}
	return out, nil
}

// isLiteral reports whether parts hold only text, quoted or not. Unquoted
// tildes and glob characters expand.
func isLiteral(parts []syntax.WordPart) bool {
	for i, part := range parts {
		switch part := part.(type) {
		case *syntax.Lit:
			if (i == 0 && strings.HasPrefix(part.Value, "~")) || strings.ContainsAny(part.Value, "*?[") {
				return false
			}
		case *syntax.SglQuoted:
		case *syntax.DblQuoted:
			for _, inner := range part.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// ExpandAll expands words in order, switching to Append after the first
// word. On error the tokens of the words before the failing one are kept.
func (e *Expander) ExpandAll(words []*syntax.Word) ([]Token, error) {
	var acc []Token
	for _, word := range words {
		var err error
		if acc, err = e.Expand(word, acc); err != nil {
			return acc, err
		}
	}
	return acc, nil
}

// Value expands word without field splitting or globbing, the way assignment
// values are expanded.
func (e *Expander) Value(word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	out, err := expand.Literal(e.config(), word)
	if err != nil {
		return "", &Error{Word: Source(word), Err: err}
	}
	return out, nil
}

// Single expands word and requires exactly one resulting field, as needed for
// redirection targets.
func (e *Expander) Single(word *syntax.Word) (string, error) {
	tokens, err := e.Expand(word, nil)
	if err != nil {
		return "", err
	}
	if len(tokens) != 1 {
		return "", &Error{Word: Source(word), Err: errors.New("ambiguous redirect")}
	}
	return tokens[0].Value, nil
}

// Source prints the word as it was written.
func Source(word *syntax.Word) string {
	if word == nil {
		return ""
	}
	buf := &bytes.Buffer{}
	if err := syntax.NewPrinter().Print(buf, word); err != nil {
		return word.Lit()
	}
	return buf.String()
}

// StatusSpecials returns the special parameters for a given last status.
func StatusSpecials(lastStatus int) []string {
	return []string{
		"?=" + strconv.Itoa(lastStatus),
		"$=" + strconv.Itoa(os.Getpid()),
	}
}
