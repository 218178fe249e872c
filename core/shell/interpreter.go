package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/jboxsh/jbox/core/job"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/jboxsh/jbox/core/wordexp"
	"mvdan.cc/sh/v3/syntax"
)

// Options configures an Interpreter.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Events receives structured events, may be nil.
	Events logger.Recorder
	// Log receives debug output, may be nil.
	Log *log.Logger
	// Color highlights error messages.
	Color bool
	// HistoryLimit defaults to DefaultHistoryLimit.
	HistoryLimit int
}

// Interpreter runs lines against an EnvironmentState. It isn't safe for
// concurrent use, lines are run one at a time.
type Interpreter struct {
	state    *vos.State
	executor *job.Executor
	expander *wordexp.Expander
	builder  *job.Builder
	jobs     *job.Table
	history  *History

	input    *job.Input
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	events   logger.Recorder
	log      *log.Logger
	errColor *color.Color

	lastStatus int
	exited     bool
	exitCode   int
}

// New creates an interpreter running commands through executor, which must
// share state.
func New(state *vos.State, executor *job.Executor, opts Options) *Interpreter {
	s := &Interpreter{
		state:    state,
		executor: executor,
		jobs:     job.NewTable(),
		history:  NewHistory(opts.HistoryLimit),
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		events:   opts.Events,
		log:      opts.Log,
	}
	if s.log == nil {
		s.log = log.New(ioutil.Discard, "", 0)
	}
	if opts.Stdin != nil {
		s.input = job.NewInput(opts.Stdin)
		s.stdin = s.input
	}
	if s.stdout == nil {
		s.stdout = ioutil.Discard
	}
	if s.stderr == nil {
		s.stderr = ioutil.Discard
	}
	if opts.Color {
		s.errColor = color.New(color.FgRed)
		s.errColor.EnableColor()
	}

	s.expander = wordexp.New(state)
	s.expander.Specials = func() []string {
		return wordexp.StatusSpecials(s.lastStatus)
	}
	s.builder = job.NewBuilder(s.expander)
	return s
}

// State returns the EnvironmentState commands run against.
func (s *Interpreter) State() *vos.State {
	return s.state
}

// Registry returns the commands known to the interpreter.
func (s *Interpreter) Registry() *registry.Registry {
	return s.executor.Registry
}

// Input returns the shared stdin of the interpreter, nil when it has none.
// Line editors read through it so jobs and the editor never lose each
// other's input.
func (s *Interpreter) Input() *job.Input {
	return s.input
}

// Jobs returns the background job table.
func (s *Interpreter) Jobs() *job.Table {
	return s.jobs
}

// History returns the line history.
func (s *Interpreter) History() *History {
	return s.history
}

// Resolve reports how name would run.
func (s *Interpreter) Resolve(name string, env vos.VEnv) (job.Resolution, error) {
	return s.executor.Resolve(name, env)
}

// LastStatus returns $?.
func (s *Interpreter) LastStatus() int {
	return s.lastStatus
}

// Exit asks the interpreter to stop after the current statement.
func (s *Interpreter) Exit(code int) {
	s.exited = true
	s.exitCode = code
}

// Exited reports whether exit was requested and with which status.
func (s *Interpreter) Exited() (bool, int) {
	return s.exited, s.exitCode
}

// Close terminates and reaps background jobs.
func (s *Interpreter) Close() error {
	for _, entry := range s.jobs.List() {
		entry.Terminate()
		entry.Wait()
		s.jobs.Remove(entry.ID)
	}
	return nil
}

// ReportJobs prints and forgets background jobs that finished since the last
// call.
func (s *Interpreter) ReportJobs() {
	for _, entry := range s.jobs.Reap() {
		fmt.Fprintln(s.stdout, entry.String())
	}
}

// newParser reads POSIX sh. The bash dialect turns export and friends into
// declaration clauses instead of plain commands.
func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
}

// RunLine parses and runs one line, returning its status.
func (s *Interpreter) RunLine(ctx context.Context, line string) int {
	file, err := newParser().Parse(strings.NewReader(line), "")
	if err != nil {
		s.invalid([]string{line}, fmt.Errorf("syntax error: %v", err))
		s.lastStatus = job.StatusSyntax
		return s.lastStatus
	}

	for _, stmt := range file.Stmts {
		if s.exited {
			break
		}
		s.lastStatus = s.runStmt(ctx, stmt)
	}
	if s.exited {
		s.lastStatus = s.exitCode
	}
	return s.lastStatus
}

func (s *Interpreter) runStmt(ctx context.Context, stmt *syntax.Stmt) int {
	if stmt.Background {
		return s.runBackground(ctx, stmt)
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if cmd.Op != syntax.AndStmt && cmd.Op != syntax.OrStmt {
			break
		}
		if stmt.Negated || len(stmt.Redirs) > 0 {
			return s.unsupported(stmt)
		}

		s.lastStatus = s.runStmt(ctx, cmd.X)
		if s.exited {
			return s.lastStatus
		}
		if (cmd.Op == syntax.AndStmt) == (s.lastStatus == 0) {
			return s.runStmt(ctx, cmd.Y)
		}
		return s.lastStatus

	case *syntax.CallExpr:
		if len(cmd.Args) == 0 {
			return s.runAssignments(ctx, stmt, cmd)
		}
	}

	return s.runPipeline(ctx, stmt)
}

// runPipeline builds and runs a pipeline in the foreground.
func (s *Interpreter) runPipeline(ctx context.Context, stmt *syntax.Stmt) int {
	res, _ := s.runJob(ctx, stmt, false)
	return res.ExitCode()
}

// runJob runs stmt as a foreground job. The bool is false if it never
// reached the executor.
func (s *Interpreter) runJob(ctx context.Context, stmt *syntax.Stmt, capture bool) (job.Result, bool) {
	vec, status := s.build(stmt)
	if vec == nil {
		return job.Result{Status: job.ExitStatus(status)}, false
	}
	text := vec.Text

	res := s.executor.Run(ctx, vec, job.Options{
		Stdin:   s.stdin,
		Stdout:  s.stdout,
		Stderr:  s.stderr,
		Capture: capture,
	})
	s.reportResult(text, res)
	s.recordJob(text, res, false)
	return res, true
}

func (s *Interpreter) build(stmt *syntax.Stmt) (*job.CommandVector, int) {
	stages, err := job.Stages(stmt)
	if err == nil {
		var vec *job.CommandVector
		if vec, err = s.builder.Build(stages); err == nil {
			return vec, 0
		}
	}

	s.invalid([]string{job.PipelineText([]*syntax.Stmt{stmt})}, err)
	var wordErr *wordexp.Error
	if errors.As(err, &wordErr) {
		return nil, job.StatusFailure
	}
	return nil, job.StatusSyntax
}

func (s *Interpreter) reportResult(text string, res job.Result) {
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, job.ErrTerminated):
		s.log.Printf("%q: %v", text, res.Err)
	default:
		s.errorf("%v", res.Err)
	}
}

func (s *Interpreter) recordJob(text string, res job.Result, background bool) {
	if s.events == nil {
		return
	}

	stages := make([]int, len(res.Stages))
	for i, status := range res.Stages {
		stages[i] = status.ExitCode()
	}
	err := s.events.Record(&logger.JobComplete{
		Line:           text,
		Status:         res.ExitCode(),
		StageStatuses:  stages,
		DurationMicros: res.Duration.Microseconds(),
		Background:     background,
	})
	if err != nil {
		s.log.Printf("recording job: %v", err)
	}
}

func (s *Interpreter) runBackground(ctx context.Context, stmt *syntax.Stmt) int {
	fg := *stmt
	fg.Background = false

	vec, status := s.build(&fg)
	if vec == nil {
		return status
	}
	// Builtins change the interpreter, which only the foreground may do.
	for _, cmd := range vec.Commands {
		if desc, ok := s.executor.Registry.Find(cmd.Name()); ok && desc.Kind == registry.Builtin {
			s.invalid([]string{vec.Text}, fmt.Errorf("%w: builtin %s in background job", job.ErrUnsupported, desc.Name))
			vec.Release()
			return job.StatusSyntax
		}
	}

	j, err := s.executor.Start(context.WithoutCancel(ctx), vec, job.Options{
		Stdout: s.stdout,
		Stderr: s.stderr,
	})
	if err != nil {
		s.errorf("%v", err)
		j.Close()
		return job.StatusOf(err)
	}

	text := j.Text()
	entry := s.jobs.Add(j, func(res job.Result) {
		s.recordJob(text, res, true)
	})
	fmt.Fprintf(s.stderr, "[%d] %d\n", entry.ID, entry.PID)
	return 0
}

// runAssignments handles a statement made only of assignments, they change
// the EnvironmentState. NAME=$(pipeline) captures the pipeline's output.
func (s *Interpreter) runAssignments(ctx context.Context, stmt *syntax.Stmt, call *syntax.CallExpr) int {
	if stmt.Negated || len(stmt.Redirs) > 0 {
		return s.unsupported(stmt)
	}

	status := 0
	for _, assign := range call.Assigns {
		if assign.Naked || assign.Index != nil || assign.Array != nil {
			return s.unsupported(stmt)
		}
		name := assign.Name.Value

		var value string
		if inner := captureSource(assign.Value); inner != nil {
			res, ok := s.runJob(ctx, inner, true)
			status = res.ExitCode()
			if !ok {
				return status
			}
			value = strings.TrimSpace(string(res.Captured))
		} else {
			var err error
			if value, err = s.expander.Value(assign.Value); err != nil {
				s.invalid([]string{name}, err)
				return job.StatusFailure
			}
		}

		if err := s.state.Setenv(name, value); err != nil {
			s.invalid([]string{name}, fmt.Errorf("%s: %w", name, err))
			return job.StatusFailure
		}
	}
	return status
}

// captureSource returns the pipeline of a value written as $(pipeline) or
// "$(pipeline)".
func captureSource(word *syntax.Word) *syntax.Stmt {
	if word == nil || len(word.Parts) != 1 {
		return nil
	}

	part := word.Parts[0]
	if quoted, ok := part.(*syntax.DblQuoted); ok && len(quoted.Parts) == 1 {
		part = quoted.Parts[0]
	}
	subst, ok := part.(*syntax.CmdSubst)
	if !ok || len(subst.Stmts) != 1 || subst.Stmts[0].Background {
		return nil
	}
	return subst.Stmts[0]
}

func (s *Interpreter) unsupported(stmt *syntax.Stmt) int {
	text := job.PipelineText([]*syntax.Stmt{stmt})
	s.invalid([]string{text}, fmt.Errorf("%w: %s", job.ErrUnsupported, text))
	return job.StatusSyntax
}

// invalid reports an error for a line that never reached the executor.
func (s *Interpreter) invalid(command []string, err error) {
	s.errorf("%v", err)
	if s.events == nil {
		return
	}
	if recErr := s.events.Record(&logger.InvalidInvocation{Command: command, Error: err.Error()}); recErr != nil {
		s.log.Printf("recording invocation: %v", recErr)
	}
}

func (s *Interpreter) errorf(format string, args ...interface{}) {
	msg := "jsh: " + fmt.Sprintf(format, args...)
	if s.errColor != nil {
		s.errColor.Fprintln(s.stderr, msg)
		return
	}
	fmt.Fprintln(s.stderr, msg)
}
