package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		InvalidInvocations: NewPathCounter("command", "error"),
		UnknownCommands:    NewPathCounter("command", "status", "error"),
	}
}

// BugReport pulls events that are likely bugs in commands or the interpreter.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	UnknownCommands    *PathCounter `json:"unknown_commands"`
	Panics             []*Panic     `json:"panics"`
}

func (r *BugReport) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetEvent().(type) {
	case *Panic:
		r.Panics = append(r.Panics, event)
	case *UnknownCommand:
		r.UnknownCommands.Increment(firstOrEmpty(event.Command), strconv.Itoa(event.Status), event.Error)
	case *InvalidInvocation:
		r.InvalidInvocations.Increment(firstOrEmpty(event.Command), event.Error)
	}
}

type SessionReport struct {
	// Map of sessionID -> session
	sessions map[string]*Session
}

// Session summarizes the events of one session.
type Session struct {
	User        string   `json:"user,omitempty"`
	RemoteAddr  string   `json:"remote_addr,omitempty"`
	Interactive bool     `json:"interactive"`
	LogEntries  int      `json:"log_entries"`
	Jobs        []string `json:"jobs"`
}

func (s *Session) Update(le *LogEntry) {
	s.LogEntries++

	switch event := le.GetEvent().(type) {
	case *SessionStart:
		s.User = event.User
		s.RemoteAddr = event.RemoteAddr
		s.Interactive = event.Interactive
	case *JobComplete:
		s.Jobs = append(s.Jobs, fmt.Sprintf("%s => %d", event.Line, event.Status))
	}
}

func (i *SessionReport) init() {
	if i.sessions == nil {
		i.sessions = make(map[string]*Session)
	}
}

// MarshalJSON implements custom JSON marshaler.
func (i *SessionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.sessions)
}

func (i *SessionReport) Update(le *LogEntry) {
	i.init()

	if le.SessionID == "" {
		return
	}
	report, ok := i.sessions[le.SessionID]
	if !ok {
		report = &Session{}
		i.sessions[le.SessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	Sessions          int                     `json:"sessions"`
	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	Jobs              JobReport               `json:"job_report"`
	Panic             PanicReport             `json:"panic_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetEvent().(type) {
	case *SessionStart:
		r.Sessions++
	case *RunCommand:
		r.RunCommand.update(event)
	case *Panic:
		r.Panic.update(event)
	case *UnknownCommand:
		r.UnknownCommand.update(event)
	case *InvalidInvocation:
		r.InvalidInvocation.update(event)
	case *JobComplete:
		r.Jobs.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunCommandReport struct {
	// Name of the resolved command
	ResolvedCommandPaths StrCounter `json:"resolved_command_paths"`
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Builtin vs external
	Kinds StrCounter `json:"kinds"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	if rc.ResolvedPath != "" {
		r.ResolvedCommandPaths.Increment(rc.ResolvedPath)
	}
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
	r.Kinds.Increment(rc.Kind)
}

type UnknownCommandReport struct {
	CommandNames    StrCounter `json:"command_names"`
	CommandStatuses StrCounter `json:"command_statuses"`
}

func (r *UnknownCommandReport) update(logEntry *UnknownCommand) {
	if len(logEntry.Command) > 0 {
		r.CommandNames.Increment(logEntry.Command[0])
	}

	r.CommandStatuses.Increment(strconv.Itoa(logEntry.Status))
}

type InvalidInvocationReport struct {
	CommandNames StrCounter `json:"command_counts"`
}

func (r *InvalidInvocationReport) update(logEntry *InvalidInvocation) {
	if len(logEntry.Command) > 0 {
		r.CommandNames.Increment(logEntry.Command[0])
	}
}

type JobReport struct {
	Count      int        `json:"count"`
	Background int        `json:"background"`
	Statuses   StrCounter `json:"statuses"`
}

func (r *JobReport) update(jc *JobComplete) {
	r.Count++
	if jc.Background {
		r.Background++
	}
	r.Statuses.Increment(strconv.Itoa(jc.Status))
}

type PanicReport struct {
	Contexts []string `json:"contexts"`
}

func (r *PanicReport) update(p *Panic) {
	r.Contexts = append(r.Contexts, p.Context)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}

func firstOrEmpty(command []string) string {
	if len(command) == 0 {
		return ""
	}
	return strings.TrimSpace(command[0])
}
