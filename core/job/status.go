package job

import (
	"fmt"
	"os"
	"syscall"
)

// Well known statuses.
const (
	StatusSuccess       = 0
	StatusFailure       = 1
	StatusSyntax        = 2
	StatusCannotExecute = 126
	StatusNotFound      = 127
)

// Status is how a stage finished. A signal is kept apart from an exit code.
type Status struct {
	Code     int
	Signaled bool
	Signal   syscall.Signal
}

// ExitStatus creates a Status for a normal exit.
func ExitStatus(code int) Status {
	return Status{Code: code}
}

// SignalStatus creates a Status for a stage killed by sig.
func SignalStatus(sig syscall.Signal) Status {
	return Status{Signaled: true, Signal: sig}
}

// ExitCode returns the shell status: the code, or 128 plus the signal.
func (s Status) ExitCode() int {
	if s.Signaled {
		return 128 + int(s.Signal)
	}
	return s.Code
}

// Success reports whether the stage exited with 0.
func (s Status) Success() bool {
	return s.ExitCode() == 0
}

func (s Status) String() string {
	if s.Signaled {
		return fmt.Sprintf("signal: %v", s.Signal)
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

func processStatus(ps *os.ProcessState) Status {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return SignalStatus(ws.Signal())
	}
	return ExitStatus(ps.ExitCode())
}
