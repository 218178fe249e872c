package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"time"
)

// State is the lifecycle position of a Job.
type State int

const (
	Created State = iota
	Spawning
	Running
	Collecting
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Spawning:
		return "Spawning"
	case Running:
		return "Running"
	case Collecting:
		return "Collecting"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options holds the streams of a job.
type Options struct {
	// Stdin feeds the first stage, nil reads as empty.
	Stdin io.Reader
	// Stdout receives the last stage's output, nil discards it.
	Stdout io.Writer
	// Stderr receives every stage's errors, nil discards them.
	Stderr io.Writer
	// Capture keeps a copy of everything written to Stdout.
	Capture bool
}

// Result is the outcome of a job.
type Result struct {
	// Status of the last stage, or the failure status if the job never ran.
	Status Status
	// Stages holds the status of every stage in pipeline order.
	Stages []Status
	// Captured holds the output copy when Options.Capture was set.
	Captured  []byte
	Truncated bool
	Duration  time.Duration
	// Err is set when the job failed to start or was terminated.
	Err error
}

// ExitCode returns the shell status of the job.
func (r Result) ExitCode() int {
	return r.Status.ExitCode()
}

// Job is one execution of a CommandVector.
type Job struct {
	vec   *CommandVector
	ctx   context.Context
	grace time.Duration
	start time.Time

	mu         sync.Mutex
	state      State
	stages     []stage
	chain      *pipeChain
	pump       *stdinPump
	tee        *Tee
	terminated bool
	failure    error
	stopAfter  func() bool

	waitOnce sync.Once
	result   Result

	closeOnce sync.Once
	closeErr  error
}

func newJob(ctx context.Context, vec *CommandVector, grace time.Duration) *Job {
	return &Job{
		vec:   vec,
		ctx:   ctx,
		grace: grace,
		start: time.Now(),
		state: Created,
	}
}

// State returns the lifecycle position of the job.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(state State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
}

// Text returns the pipeline as written.
func (j *Job) Text() string {
	return j.vec.Text
}

// Pid returns the process ID of the last external stage, 0 if there is none.
func (j *Job) Pid() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := len(j.stages) - 1; i >= 0; i-- {
		if pid := j.stages[i].pid(); pid != 0 {
			return pid
		}
	}
	return 0
}

// Pids returns the process IDs of the external stages in pipeline order.
func (j *Job) Pids() []int {
	j.mu.Lock()
	defer j.mu.Unlock()

	var pids []int
	for _, s := range j.stages {
		if pid := s.pid(); pid != 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Signal sends sig to every running stage. The first delivery error is
// returned after all stages were tried.
func (j *Job) Signal(sig syscall.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch sig {
	case syscall.SIGTERM, syscall.SIGKILL, syscall.SIGINT, syscall.SIGHUP:
		j.terminated = true
	}
	var first error
	for _, s := range j.stages {
		if err := s.signal(sig); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Terminate stops every running stage: externals get SIGTERM and, after the
// grace period, SIGKILL. Builtins have their streams closed.
func (j *Job) Terminate() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.terminateLocked()
}

func (j *Job) terminateLocked() {
	j.terminated = true
	for _, s := range j.stages {
		s.terminate(j.grace)
	}
}

// fail moves the job to Failed after stopping and reaping whatever already
// started.
func (j *Job) fail(err error) {
	j.terminateLocked()
	for _, s := range j.stages {
		if b, ok := s.(*builtinStage); ok && !b.launched {
			continue
		}
		s.wait()
	}
	j.state = Failed
	j.failure = err
}

// Wait runs the last stage if it's a builtin, then waits for every stage.
// It returns the same Result on every call.
func (j *Job) Wait() Result {
	j.waitOnce.Do(func() {
		j.result = j.collect()
		j.result.Duration = time.Since(j.start)
	})
	return j.result
}

func (j *Job) collect() Result {
	j.mu.Lock()
	if j.state == Failed || len(j.stages) == 0 {
		err := j.failure
		j.mu.Unlock()
		return Result{Status: ExitStatus(StatusOf(err)), Err: err}
	}
	stages := j.stages
	j.mu.Unlock()

	if last, ok := stages[len(stages)-1].(*builtinStage); ok && !last.launched {
		j.mu.Lock()
		terminated := j.terminated
		j.mu.Unlock()

		if terminated {
			last.skip(SignalStatus(syscall.SIGTERM))
		} else {
			last.run()
		}
	}

	j.setState(Collecting)
	res := Result{Stages: make([]Status, len(stages))}
	for i, s := range stages {
		res.Stages[i] = s.wait()
	}
	res.Status = res.Stages[len(res.Stages)-1]
	j.pump.stop()

	if j.tee != nil {
		res.Captured = j.tee.Bytes()
		res.Truncated = j.tee.Truncated()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminated {
		res.Err = ErrTerminated
		if err := j.ctx.Err(); err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrTerminated, err)
		}
	}
	j.state = Completed
	return res
}

// Close releases every resource of the job and its CommandVector. A job
// that is still running is terminated and reaped first. Close is safe to
// call more than once and on jobs that failed to start.
func (j *Job) Close() error {
	j.closeOnce.Do(func() {
		j.mu.Lock()
		stop := j.stopAfter
		running := j.state == Running || j.state == Collecting
		j.mu.Unlock()

		if stop != nil {
			stop()
		}
		if running {
			j.Terminate()
			j.Wait()
		}

		j.mu.Lock()
		defer j.mu.Unlock()

		j.pump.stop()
		var errs []error
		for _, s := range j.stages {
			errs = append(errs, s.release())
		}
		errs = append(errs, j.chain.closeAll())
		if j.tee != nil {
			j.tee.Reset()
		}
		j.vec.Release()
		j.closeErr = errors.Join(errs...)
	})
	return j.closeErr
}
