package shell

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/abiosoft/readline"
	"github.com/jboxsh/jbox/core/job"
)

// SessionConfig configures the line editor of an interactive session.
type SessionConfig struct {
	Stdout io.Writer
	Stderr io.Writer

	// HistoryFile persists entered lines, empty keeps them in memory.
	HistoryFile  string
	HistoryLimit int

	// Width returns the terminal width.
	Width func() int
	// IsTerminal reports whether the session has a terminal.
	IsTerminal func() bool
	// MakeRaw and ExitRaw switch the terminal mode, nil uses the terminal of
	// the process.
	MakeRaw func() error
	ExitRaw func() error
	// OnWidthChanged registers a callback for window size changes, nil
	// watches SIGWINCH.
	OnWidthChanged func(func())
}

// Session reads lines with a line editor and runs them until EOF or exit.
type Session struct {
	interp   *Interpreter
	readline *readline.Instance
	// gate keeps the editor off stdin while a line runs.
	gate *job.Gate

	mu         sync.Mutex
	cancelLine context.CancelFunc
}

// NewSession creates an interactive session around interp.
func NewSession(interp *Interpreter, sc SessionConfig) (*Session, error) {
	input := interp.Input()
	if input == nil {
		input = job.NewInput(strings.NewReader(""))
	}
	gate := job.NewGate(input)

	cfg := &readline.Config{
		Stdin:        readline.NewCancelableStdin(gate),
		Stdout:       sc.Stdout,
		Stderr:       sc.Stderr,
		HistoryFile:  sc.HistoryFile,
		HistoryLimit: sc.HistoryLimit,
		FuncGetWidth: func() int {
			if sc.Width == nil {
				return 80
			}
			return sc.Width()
		},
		FuncIsTerminal: func() bool {
			return sc.IsTerminal != nil && sc.IsTerminal()
		},
		FuncMakeRaw:        sc.MakeRaw,
		FuncExitRaw:        sc.ExitRaw,
		FuncOnWidthChanged: sc.OnWidthChanged,
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	interp.History().OnClear = func() {
		rl.Operation.ResetHistory()
	}

	return &Session{
		interp:   interp,
		readline: rl,
		gate:     gate,
	}, nil
}

// Interrupt cancels the line that's running, if any.
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLine != nil {
		s.cancelLine()
	}
}

// Run reads and runs lines. It returns the status of exit, or of the last
// line at EOF.
func (s *Session) Run(ctx context.Context) int {
	var pending []string
	for {
		if exited, code := s.interp.Exited(); exited {
			return code
		}
		if ctx.Err() != nil {
			return s.interp.LastStatus()
		}

		if len(pending) == 0 {
			s.interp.ReportJobs()
			s.readline.SetPrompt(Prompt(s.interp.State(), s.interp.State().Getwd()))
		} else {
			s.readline.SetPrompt(ContinuationPrompt)
		}

		line, err := s.readline.Readline()
		switch {
		case err == io.EOF:
			return s.interp.LastStatus() // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			pending = nil
			continue

		case err != nil:
			s.interp.log.Printf("Error readline: %v", err)
			return s.interp.LastStatus()
		}

		if strings.HasSuffix(line, `\`) {
			pending = append(pending, strings.TrimSuffix(line, `\`))
			continue
		}
		line = strings.Join(append(pending, line), "")
		pending = nil

		if strings.TrimSpace(line) == "" {
			continue // empty line
		}
		s.interp.History().Add(line)
		s.runLine(ctx, line)
	}
}

func (s *Session) runLine(ctx context.Context, line string) {
	lineCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelLine = cancel
	s.mu.Unlock()

	s.gate.Close()
	s.interp.RunLine(lineCtx, line)
	s.gate.Open()

	s.mu.Lock()
	s.cancelLine = nil
	s.mu.Unlock()
	cancel()
}

// Close releases the line editor.
func (s *Session) Close() error {
	return s.readline.Close()
}
