package logger

// Event is a loggable interpreter event.
type Event interface {
	isEvent()
}

// SessionStart is recorded when an interpreter session begins.
type SessionStart struct {
	User        string `json:"user,omitempty"`
	RemoteAddr  string `json:"remote_addr,omitempty"`
	Term        string `json:"term,omitempty"`
	Interactive bool   `json:"interactive"`
}

// RunCommand is recorded for every pipeline stage that starts.
type RunCommand struct {
	Command []string `json:"command"`
	// Kind is "builtin" or "external".
	Kind string `json:"kind"`
	// ResolvedPath is the executable for external stages.
	ResolvedPath string `json:"resolved_path,omitempty"`
}

// UnknownCommand is recorded when a stage can't be resolved or started.
type UnknownCommand struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
	Error   string   `json:"error"`
}

// InvalidInvocation is recorded when a line or command is rejected before
// it runs: syntax errors, expansion errors, bad flags.
type InvalidInvocation struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

// JobComplete is recorded when a foreground or background job finishes.
type JobComplete struct {
	Line           string `json:"line"`
	Status         int    `json:"status"`
	StageStatuses  []int  `json:"stage_statuses"`
	DurationMicros int64  `json:"duration_micros"`
	Background     bool   `json:"background,omitempty"`
}

// Panic is recorded when a builtin panics.
type Panic struct {
	Context    string `json:"context"`
	Stacktrace string `json:"stacktrace,omitempty"`
}

func (*SessionStart) isEvent()      {}
func (*RunCommand) isEvent()        {}
func (*UnknownCommand) isEvent()    {}
func (*InvalidInvocation) isEvent() {}
func (*JobComplete) isEvent()       {}
func (*Panic) isEvent()             {}

// LogEntry is one line of the event log. Exactly one event field is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart      *SessionStart      `json:"session_start,omitempty"`
	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	JobComplete       *JobComplete       `json:"job_complete,omitempty"`
	Panic             *Panic             `json:"panic,omitempty"`
}

// GetEvent returns the event held by the entry, or nil.
func (le *LogEntry) GetEvent() Event {
	switch {
	case le.SessionStart != nil:
		return le.SessionStart
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.JobComplete != nil:
		return le.JobComplete
	case le.Panic != nil:
		return le.Panic
	default:
		return nil
	}
}

// SetEvent stores event in the matching field.
func (le *LogEntry) SetEvent(event Event) {
	switch event := event.(type) {
	case *SessionStart:
		le.SessionStart = event
	case *RunCommand:
		le.RunCommand = event
	case *UnknownCommand:
		le.UnknownCommand = event
	case *InvalidInvocation:
		le.InvalidInvocation = event
	case *JobComplete:
		le.JobComplete = event
	case *Panic:
		le.Panic = event
	}
}
