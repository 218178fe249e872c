package job

import (
	"fmt"
	"os/exec"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/vos"
)

// stage is one running pipeline position, either an in-process builtin or
// an external process.
type stage interface {
	// wait blocks until the stage has finished.
	wait() Status
	// terminate asks the stage to stop early.
	terminate(grace time.Duration)
	// release closes everything the stage still owns.
	release() error
	// signal delivers sig. Builtins can't be signalled, they are stopped
	// for the terminating signals and ignore the rest.
	signal(sig syscall.Signal) error
	// pid returns the process ID, 0 for builtins.
	pid() int
}

type builtinStage struct {
	desc   registry.Descriptor
	proc   *vos.Proc
	events logger.Recorder

	// owned holds the pipe ends and files the builtin reads and writes,
	// closed when it returns so neighbours see EOF.
	owned listCloser

	launched bool
	done     chan struct{}
	status   Status
}

var _ stage = (*builtinStage)(nil)

func newBuiltinStage(desc registry.Descriptor, proc *vos.Proc, owned listCloser, events logger.Recorder) *builtinStage {
	return &builtinStage{
		desc:   desc,
		proc:   proc,
		owned:  owned,
		events: events,
		done:   make(chan struct{}),
	}
}

// launch runs the builtin on its own goroutine.
func (s *builtinStage) launch() {
	s.launched = true
	go s.run()
}

// run runs the builtin on the calling goroutine.
func (s *builtinStage) run() {
	s.launched = true
	defer close(s.done)
	defer s.owned.Close()

	s.status = ExitStatus(s.call())
}

// skip finishes the stage without running it.
func (s *builtinStage) skip(status Status) {
	s.launched = true
	s.status = status
	s.owned.Close()
	close(s.done)
}

func (s *builtinStage) call() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(s.proc.Stderr(), "jsh: %s: %v\n", s.desc.Name, r)
			if s.events != nil {
				_ = s.events.Record(&logger.Panic{
					Context:    fmt.Sprintf("%s: %v", s.desc.Name, r),
					Stacktrace: string(debug.Stack()),
				})
			}
			code = StatusFailure
		}
	}()

	return s.desc.Run(s.proc)
}

func (s *builtinStage) wait() Status {
	<-s.done
	return s.status
}

func (s *builtinStage) terminate(time.Duration) {
	s.owned.Close()
}

func (s *builtinStage) signal(sig syscall.Signal) error {
	switch sig {
	case syscall.SIGTERM, syscall.SIGKILL, syscall.SIGINT, syscall.SIGHUP:
		s.owned.Close()
	}
	return nil
}

func (s *builtinStage) release() error {
	return s.owned.Close()
}

func (*builtinStage) pid() int {
	return 0
}

type externalStage struct {
	cmd *exec.Cmd

	// afterStart holds pipe ends the child inherited, the parent must not
	// keep them open.
	afterStart listCloser
	// afterWait holds redirect files.
	afterWait listCloser

	done   chan struct{}
	status Status
}

var _ stage = (*externalStage)(nil)

func (s *externalStage) start() error {
	err := s.cmd.Start()
	s.afterStart.Close()
	if err != nil {
		s.afterWait.Close()
		return err
	}

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		err := s.cmd.Wait()
		s.afterWait.Close()
		switch {
		case s.cmd.ProcessState != nil:
			s.status = processStatus(s.cmd.ProcessState)
		case err != nil:
			s.status = ExitStatus(StatusFailure)
		}
	}()
	return nil
}

func (s *externalStage) wait() Status {
	<-s.done
	return s.status
}

func (s *externalStage) terminate(grace time.Duration) {
	if s.cmd.Process == nil || s.done == nil {
		return
	}
	select {
	case <-s.done:
		return
	default:
	}

	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	go func() {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-s.done:
		case <-timer.C:
			_ = s.cmd.Process.Kill()
		}
	}()
}

func (s *externalStage) signal(sig syscall.Signal) error {
	if s.cmd.Process == nil || s.done == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	default:
	}
	return s.cmd.Process.Signal(sig)
}

func (s *externalStage) release() error {
	return listCloser{s.afterStart, s.afterWait}.Close()
}

func (s *externalStage) pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}
