package job

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jboxsh/jbox/core/wordexp"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrEmptyCommand is returned for a stage whose words expand to nothing.
	ErrEmptyCommand = errors.New("syntax error: empty command")
	// ErrUnsupported is returned for grammar the executor can't run.
	ErrUnsupported = errors.New("unsupported")
)

// BuildError identifies the stage and word that failed to build.
type BuildError struct {
	// Stage is the zero based pipeline position.
	Stage int
	// Word is the zero based word position, or -1 when the failure isn't
	// tied to an argument word.
	Word int
	Err  error
}

func (e *BuildError) Error() string {
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder turns parsed statements into a CommandVector.
type Builder struct {
	Expander *wordexp.Expander
}

// NewBuilder creates a builder expanding words with expander.
func NewBuilder(expander *wordexp.Expander) *Builder {
	return &Builder{Expander: expander}
}

// Build creates one Command per statement. Statements must be simple
// commands, in pipeline order.
func (b *Builder) Build(stages []*syntax.Stmt) (*CommandVector, error) {
	if len(stages) == 0 {
		return nil, &BuildError{Word: -1, Err: ErrEmptyCommand}
	}

	vec := &CommandVector{Text: PipelineText(stages)}
	for i, stmt := range stages {
		cmd, err := b.buildStage(i, stmt)
		if err != nil {
			vec.Release()
			return nil, err
		}
		vec.Commands = append(vec.Commands, cmd)
	}
	return vec, nil
}

func (b *Builder) buildStage(stage int, stmt *syntax.Stmt) (*Command, error) {
	fail := func(word int, err error) (*Command, error) {
		return nil, &BuildError{Stage: stage, Word: word, Err: err}
	}

	if stmt.Negated {
		return fail(-1, fmt.Errorf("%w: !", ErrUnsupported))
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return fail(-1, fmt.Errorf("%w: %s", ErrUnsupported, nodeName(stmt.Cmd)))
	}

	cmd := &Command{}
	for _, assign := range call.Assigns {
		if assign.Append || assign.Naked || assign.Index != nil || assign.Array != nil {
			return fail(-1, fmt.Errorf("%w: assignment %s", ErrUnsupported, assign.Name.Value))
		}
		val, err := b.Expander.Value(assign.Value)
		if err != nil {
			return fail(-1, err)
		}
		cmd.Assigns = append(cmd.Assigns, assign.Name.Value+"="+val)
	}

	var err error
	for i, word := range call.Args {
		if cmd.Args, err = b.Expander.Expand(word, cmd.Args); err != nil {
			return fail(i, err)
		}
	}
	if len(cmd.Args) == 0 {
		return fail(-1, ErrEmptyCommand)
	}

	for _, redir := range stmt.Redirs {
		if err := b.addRedirect(cmd, redir); err != nil {
			return fail(-1, err)
		}
	}
	return cmd, nil
}

func (b *Builder) addRedirect(cmd *Command, redir *syntax.Redirect) error {
	fd := -1
	if redir.N != nil {
		switch redir.N.Value {
		case "0":
			fd = 0
		case "1":
			fd = 1
		case "2":
			fd = 2
		default:
			return fmt.Errorf("%w: file descriptor %s", ErrUnsupported, redir.N.Value)
		}
	}

	switch redir.Op {
	case syntax.RdrIn:
		if fd != -1 && fd != 0 {
			return fmt.Errorf("%w: %d<", ErrUnsupported, fd)
		}
		target, err := b.Expander.Single(redir.Word)
		if err != nil {
			return err
		}
		return setRedirect(&cmd.Stdin, "input", &Redirect{Op: RedirectIn, Target: target})

	case syntax.RdrOut, syntax.AppOut:
		op := RedirectOut
		if redir.Op == syntax.AppOut {
			op = RedirectAppend
		}
		target, err := b.Expander.Single(redir.Word)
		if err != nil {
			return err
		}
		// Aliases are applied after files, so a file named after the alias
		// would change what the alias meant.
		switch fd {
		case -1, 1:
			if cmd.Stderr != nil && cmd.Stderr.Op == RedirectToStdout {
				return fmt.Errorf("%w: %s after 2>&1", ErrUnsupported, redirText(redir))
			}
			return setRedirect(&cmd.Stdout, "output", &Redirect{Op: op, Target: target})
		case 2:
			if cmd.Stdout != nil && cmd.Stdout.Op == RedirectToStderr {
				return fmt.Errorf("%w: %s after >&2", ErrUnsupported, redirText(redir))
			}
			return setRedirect(&cmd.Stderr, "error", &Redirect{Op: op, Target: target})
		}

	case syntax.RdrAll, syntax.AppAll:
		op := RedirectOut
		if redir.Op == syntax.AppAll {
			op = RedirectAppend
		}
		target, err := b.Expander.Single(redir.Word)
		if err != nil {
			return err
		}
		if err := setRedirect(&cmd.Stdout, "output", &Redirect{Op: op, Target: target}); err != nil {
			return err
		}
		return setRedirect(&cmd.Stderr, "error", &Redirect{Op: RedirectToStdout})

	case syntax.DplOut:
		switch {
		case fd == 2 && redir.Word.Lit() == "1":
			return setRedirect(&cmd.Stderr, "error", &Redirect{Op: RedirectToStdout})
		case (fd == -1 || fd == 1) && redir.Word.Lit() == "2":
			return setRedirect(&cmd.Stdout, "output", &Redirect{Op: RedirectToStderr})
		case fd == 2 && redir.Word.Lit() == "2", (fd == -1 || fd == 1) && redir.Word.Lit() == "1":
			return nil
		}
	}

	return fmt.Errorf("%w: redirection %s", ErrUnsupported, redirText(redir))
}

func setRedirect(slot **Redirect, direction string, redir *Redirect) error {
	if *slot != nil {
		return fmt.Errorf("multiple %s redirects", direction)
	}
	*slot = redir
	return nil
}

// PipelineText prints stages joined with pipes.
func PipelineText(stages []*syntax.Stmt) string {
	parts := make([]string, 0, len(stages))
	for _, stmt := range stages {
		s := *stmt
		s.Background = false
		s.Semicolon = syntax.Pos{}
		parts = append(parts, printNode(&s))
	}
	return strings.Join(parts, " | ")
}

func printNode(node syntax.Node) string {
	buf := &bytes.Buffer{}
	if err := syntax.NewPrinter(syntax.SingleLine(true)).Print(buf, node); err != nil {
		return fmt.Sprintf("%T", node)
	}
	return strings.TrimSpace(buf.String())
}

// redirText prints a redirection the way it was written, spaces removed.
func redirText(redir *syntax.Redirect) string {
	text := redir.Op.String()
	if redir.N != nil {
		text = redir.N.Value + text
	}
	if redir.Word != nil {
		text += printNode(redir.Word)
	}
	return text
}

func nodeName(node syntax.Command) string {
	switch node.(type) {
	case *syntax.IfClause:
		return "if"
	case *syntax.WhileClause:
		return "while"
	case *syntax.ForClause:
		return "for"
	case *syntax.CaseClause:
		return "case"
	case *syntax.Block:
		return "{ }"
	case *syntax.Subshell:
		return "( )"
	case *syntax.FuncDecl:
		return "function"
	case *syntax.ArithmCmd:
		return "(( ))"
	case *syntax.TestClause:
		return "[[ ]]"
	case *syntax.DeclClause:
		return "declare"
	case *syntax.LetClause:
		return "let"
	case *syntax.TimeClause:
		return "time"
	case *syntax.CoprocClause:
		return "coproc"
	case *syntax.BinaryCmd:
		return "compound command"
	default:
		return fmt.Sprintf("%T", node)
	}
}

// Stages flattens a pipeline statement into its stages in order. A
// statement that isn't a pipeline is a single stage.
func Stages(stmt *syntax.Stmt) ([]*syntax.Stmt, error) {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || (bin.Op != syntax.Pipe && bin.Op != syntax.PipeAll) {
		return []*syntax.Stmt{stmt}, nil
	}
	if bin.Op == syntax.PipeAll {
		return nil, fmt.Errorf("%w: |&", ErrUnsupported)
	}
	if stmt.Negated {
		return nil, fmt.Errorf("%w: !", ErrUnsupported)
	}

	left, err := Stages(bin.X)
	if err != nil {
		return nil, err
	}
	right, err := Stages(bin.Y)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}
