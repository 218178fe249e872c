package job

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/spf13/afero"
)

// DefaultKillGrace is the time between SIGTERM and SIGKILL on cancellation.
const DefaultKillGrace = 2 * time.Second

// Executor runs CommandVectors against interpreter state.
type Executor struct {
	Registry *registry.Registry
	State    *vos.State

	// BinDir is searched before PATH.
	BinDir string
	// SelfExe is the multi-call binary that runs registered externals not
	// found on disk. Empty disables the fallback.
	SelfExe string
	// KillGrace defaults to DefaultKillGrace.
	KillGrace time.Duration
	// CaptureLimit bounds the capture copy, 0 is unbounded.
	CaptureLimit int

	// Events receives RunCommand and UnknownCommand events, may be nil.
	Events logger.Recorder
	// Log receives debug output, may be nil.
	Log *log.Logger
}

// Resolution says how a command name will run.
type Resolution struct {
	Kind registry.Kind
	// Descriptor is set for registered commands.
	Descriptor *registry.Descriptor
	// Path is the executable for external commands.
	Path string
	// Applet is set when Path is the multi-call binary.
	Applet bool
}

// Resolve finds what name runs: a builtin, then an executable from the bin
// dir or PATH in env, then a registered external run through SelfExe.
func (e *Executor) Resolve(name string, env vos.VEnv) (Resolution, error) {
	desc, registered := e.Registry.Find(name)
	if registered && desc.Kind == registry.Builtin {
		return Resolution{Kind: registry.Builtin, Descriptor: &desc}, nil
	}

	pathList := env.Getenv(vos.EnvPath)
	if e.BinDir != "" {
		pathList = e.BinDir + string(filepath.ListSeparator) + pathList
	}
	path, err := vos.LookPath(e.State, pathList, name)
	if err == nil {
		res := Resolution{Kind: registry.External, Path: path}
		if registered {
			res.Descriptor = &desc
		}
		return res, nil
	}

	if registered && e.SelfExe != "" {
		return Resolution{Kind: registry.External, Descriptor: &desc, Path: e.SelfExe, Applet: true}, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return Resolution{}, &SpawnError{Name: name, Err: errors.New("Permission denied"), Status: StatusCannotExecute}
	}
	return Resolution{}, &ResolutionError{Name: name, Err: err}
}

func (e *Executor) grace() time.Duration {
	if e.KillGrace > 0 {
		return e.KillGrace
	}
	return DefaultKillGrace
}

func (e *Executor) debugf(format string, v ...interface{}) {
	if e.Log != nil {
		e.Log.Printf(format, v...)
	}
}

func (e *Executor) record(event logger.Event) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Record(event); err != nil {
		e.debugf("recording event: %v", err)
	}
}

// Run starts vec, waits for it and cleans up.
func (e *Executor) Run(ctx context.Context, vec *CommandVector, opts Options) Result {
	j, _ := e.Start(ctx, vec, opts)
	defer j.Close()
	return j.Wait()
}

// Start resolves and starts every stage of vec. The returned Job is never
// nil; if an error is returned it's in the Failed state with nothing left
// running. Either way the caller must Close it.
//
// Builtin stages other than the last run on their own goroutines, the last
// stage, when it's a builtin, runs inside Wait.
func (e *Executor) Start(ctx context.Context, vec *CommandVector, opts Options) (*Job, error) {
	j := newJob(ctx, vec, e.grace())

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := ctx.Err(); err != nil {
		j.fail(err)
		return j, err
	}

	j.state = Spawning
	if err := e.spawn(j, opts); err != nil {
		e.debugf("job %q failed: %v", vec.Text, err)
		j.fail(err)
		return j, err
	}
	j.state = Running
	j.stopAfter = context.AfterFunc(ctx, j.Terminate)
	return j, nil
}

func (e *Executor) spawn(j *Job, opts Options) error {
	commands := j.vec.Commands
	if len(commands) == 0 {
		return ErrEmptyCommand
	}

	// Resolve everything first so a missing command never leaves a partial
	// pipeline behind.
	resolved := make([]Resolution, len(commands))
	for i, cmd := range commands {
		env := vos.NewProc(e.State, cmd.Argv(), cmd.Assigns, nil)
		res, err := e.Resolve(cmd.Name(), env)
		if err != nil {
			setStage(err, i)
			e.record(&logger.UnknownCommand{Command: cmd.Argv(), Status: StatusOf(err), Error: err.Error()})
			return err
		}
		resolved[i] = res
	}

	chain, err := newPipeChain(len(commands) - 1)
	if err != nil {
		return &SpawnError{Name: commands[0].Name(), Err: err, Status: StatusCannotExecute}
	}
	j.chain = chain

	var jobStdout io.Writer = opts.Stdout
	if opts.Capture {
		j.tee = NewTee(opts.Stdout, e.CaptureLimit)
		jobStdout = j.tee
	}

	last := len(commands) - 1
	for i, cmd := range commands {
		var owned, files listCloser

		stdin := opts.Stdin
		if i > 0 {
			stdin = nil
		}
		if r := chain.takeReader(i); r != nil {
			stdin = r.File
			owned = append(owned, r)
		}
		var stdout io.Writer
		if i == last {
			stdout = jobStdout
		}
		if w := chain.takeWriter(i); w != nil {
			stdout = w.File
			owned = append(owned, w)
		}
		stderr := opts.Stderr

		stdin, stdout, stderr, files, err = e.redirect(i, cmd, stdin, stdout, stderr)
		if err != nil {
			owned.Close()
			e.record(&logger.UnknownCommand{Command: cmd.Argv(), Status: StatusOf(err), Error: err.Error()})
			return err
		}

		res := resolved[i]
		if res.Kind == registry.Builtin {
			proc := vos.NewProc(e.State, cmd.Argv(), cmd.Assigns, vos.NewVIOAdapter(stdin, stdout, stderr))
			proc.Events = e.Events
			s := newBuiltinStage(*res.Descriptor, proc, append(owned, files...), e.Events)
			j.stages = append(j.stages, s)
			e.record(&logger.RunCommand{Command: cmd.Argv(), Kind: registry.Builtin.String()})
			if i != last {
				s.launch()
			}
			continue
		}

		if i == 0 && stdin != nil && cmd.Stdin == nil {
			if _, isFile := stdin.(*os.File); !isFile {
				pumped, err := e.pumpStdin(j, stdin)
				if err != nil {
					listCloser{owned, files}.Close()
					return &SpawnError{Stage: i, Name: cmd.Name(), Err: err, Status: StatusCannotExecute}
				}
				stdin = pumped.File
				owned = append(owned, pumped)
			}
		}

		proc := vos.NewProc(e.State, cmd.Argv(), cmd.Assigns, nil)
		c := &exec.Cmd{
			Path:      res.Path,
			Args:      cmd.Argv(),
			Env:       proc.Environ(),
			Dir:       e.State.Getwd(),
			Stdin:     stdin,
			Stdout:    stdout,
			Stderr:    stderr,
			WaitDelay: j.grace,
		}
		s := &externalStage{cmd: c, afterStart: owned, afterWait: files}
		if err := s.start(); err != nil {
			err = &SpawnError{Stage: i, Name: cmd.Name(), Err: describe(err), Status: StatusCannotExecute}
			e.record(&logger.UnknownCommand{Command: cmd.Argv(), Status: StatusCannotExecute, Error: err.Error()})
			return err
		}
		j.stages = append(j.stages, s)
		e.record(&logger.RunCommand{Command: cmd.Argv(), Kind: registry.External.String(), ResolvedPath: res.Path})
		e.debugf("started %s as pid %d", res.Path, s.pid())
	}
	return nil
}

// pumpStdin feeds a non-file reader to the first stage through a pipe so
// the child gets a real descriptor and reaping never waits on the reader.
// The pump stops when the job is collected.
func (e *Executor) pumpStdin(j *Job, src io.Reader) (*pipeEnd, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	reader, writer := newPipeEnd(r), newPipeEnd(w)
	j.pump = startStdinPump(NewInput(src), writer, e.debugf)
	return reader, nil
}

// redirect applies the stage's redirections over its default streams. The
// opened files are returned for the stage to own.
func (e *Executor) redirect(stage int, cmd *Command, stdin io.Reader, stdout, stderr io.Writer) (io.Reader, io.Writer, io.Writer, listCloser, error) {
	var files listCloser
	open := func(redir *Redirect) (afero.File, error) {
		flag := os.O_RDONLY
		switch redir.Op {
		case RedirectOut:
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		case RedirectAppend:
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := e.State.OpenFile(redir.Target, flag, 0644)
		if err != nil {
			return nil, &SpawnError{Stage: stage, Name: redir.Target, Err: describe(err), Status: StatusFailure}
		}
		files = append(files, &onceCloser{Closer: f})
		return f, nil
	}
	isFile := func(redir *Redirect) bool {
		return redir != nil && (redir.Op == RedirectOut || redir.Op == RedirectAppend || redir.Op == RedirectIn)
	}

	if isFile(cmd.Stdin) {
		f, err := open(cmd.Stdin)
		if err != nil {
			return nil, nil, nil, files, err
		}
		stdin = f
	}
	if isFile(cmd.Stdout) {
		f, err := open(cmd.Stdout)
		if err != nil {
			files.Close()
			return nil, nil, nil, nil, err
		}
		stdout = f
	}
	if isFile(cmd.Stderr) {
		f, err := open(cmd.Stderr)
		if err != nil {
			files.Close()
			return nil, nil, nil, nil, err
		}
		stderr = f
	}

	if cmd.Stdout != nil && cmd.Stdout.Op == RedirectToStderr {
		stdout = stderr
	}
	if cmd.Stderr != nil && cmd.Stderr.Op == RedirectToStdout {
		stderr = stdout
	}
	return stdin, stdout, stderr, files, nil
}

func setStage(err error, stage int) {
	var resErr *ResolutionError
	var spawnErr *SpawnError
	switch {
	case errors.As(err, &resErr):
		resErr.Stage = stage
	case errors.As(err, &spawnErr):
		spawnErr.Stage = stage
	}
}

// describe turns path and exec errors into the short form shells print.
func describe(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.New("No such file or directory")
	case errors.Is(err, fs.ErrPermission):
		return errors.New("Permission denied")
	case strings.Contains(err.Error(), "is a directory"):
		return errors.New("Is a directory")
	default:
		return err
	}
}
