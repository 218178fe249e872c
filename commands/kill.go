package commands

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/jboxsh/jbox/core/job"
	"github.com/jboxsh/jbox/core/vos"
)

var killCommand = Command{
	Name:  "kill",
	Use:   "kill [-s SIGNAL | -l] %JOB | PID ...",
	Short: "send a signal to a process or job",
	Long:  "Send a signal to the processes of a job given as %JOB or to the job owning PID. The default signal is TERM.",
}

var killSignals = []struct {
	name string
	sig  syscall.Signal
}{
	{"HUP", syscall.SIGHUP},
	{"INT", syscall.SIGINT},
	{"KILL", syscall.SIGKILL},
	{"TERM", syscall.SIGTERM},
	{"CONT", syscall.SIGCONT},
	{"STOP", syscall.SIGSTOP},
}

func parseSignal(spec string) (syscall.Signal, bool) {
	if n, err := strconv.Atoi(spec); err == nil {
		for _, s := range killSignals {
			if int(s.sig) == n {
				return s.sig, true
			}
		}
		return 0, false
	}

	name := strings.TrimPrefix(strings.ToUpper(spec), "SIG")
	for _, s := range killSignals {
		if s.name == name {
			return s.sig, true
		}
	}
	return 0, false
}

// findJob resolves a %JOB or PID argument against the job table.
func findJob(table *job.Table, spec string) (*job.Entry, error) {
	if strings.HasPrefix(spec, "%") {
		id, err := strconv.Atoi(spec[1:])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid job specification", spec)
		}
		entry, ok := table.Get(id)
		if !ok {
			return nil, fmt.Errorf("%s: no such job", spec)
		}
		return entry, nil
	}

	pid, err := strconv.Atoi(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: arguments must be process or job IDs", spec)
	}
	entry, ok := table.FindPid(pid)
	if !ok {
		return nil, fmt.Errorf("(%d) - No such process", pid)
	}
	return entry, nil
}

// Kill signals background jobs. Only processes started by the interpreter
// can be signalled.
func Kill(host Host, virtOS vos.VOS) int {
	cmd := killCommand.Simple()

	opt := cmd.Flags()
	sigSpec := opt.String('s', "TERM", "signal to send, by name or number")
	list := opt.Bool('l', "list signal names")

	return cmd.Run(virtOS, func() int {
		w := virtOS.Stdout()
		if *list {
			for _, s := range killSignals {
				fmt.Fprintf(w, "%2d) SIG%s\n", int(s.sig), s.name)
			}
			return 0
		}

		sig, ok := parseSignal(*sigSpec)
		if !ok {
			return Fail(virtOS, "%s: invalid signal specification", *sigSpec)
		}

		targets := opt.Args()
		if len(targets) == 0 {
			return Fail(virtOS, "usage: %s", killCommand.Use)
		}

		status := 0
		for _, target := range targets {
			entry, err := findJob(host.Jobs(), target)
			if err == nil {
				err = entry.Signal(sig)
			}
			if err != nil {
				status = Fail(virtOS, "%v", err)
			}
		}
		return status
	})
}

var _ BuiltinFunc = Kill
