package job

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"syscall"
)

// Entry is a background job.
type Entry struct {
	ID   int
	Text string
	PID  int

	job    *Job
	done   chan struct{}
	result Result
}

// Done reports whether the job has finished.
func (e *Entry) Done() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the job finishes and returns its result.
func (e *Entry) Wait() Result {
	<-e.done
	return e.result
}

// Terminate stops the job.
func (e *Entry) Terminate() {
	e.job.Terminate()
}

// Signal sends sig to the job's running stages.
func (e *Entry) Signal(sig syscall.Signal) error {
	return e.job.Signal(sig)
}

// Pids returns the process IDs of the job's external stages.
func (e *Entry) Pids() []int {
	return e.job.Pids()
}

// State describes the job the way job listings do.
func (e *Entry) State() string {
	if !e.Done() {
		return "Running"
	}

	status := e.result.Status
	switch {
	case status.Signaled:
		name := status.Signal.String()
		return strings.ToUpper(name[:1]) + name[1:]
	case status.Code == 0:
		return "Done"
	default:
		return fmt.Sprintf("Exit %d", status.Code)
	}
}

// String formats the entry for job listings.
func (e *Entry) String() string {
	return fmt.Sprintf("[%d]  %-23s %s", e.ID, e.State(), e.Text)
}

// Table tracks background jobs.
type Table struct {
	mu      sync.Mutex
	entries map[int]*Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[int]*Entry)}
}

// Add registers a started job and reaps it in the background. onDone, if
// set, is called with the result before the entry reports done.
func (t *Table) Add(j *Job, onDone func(Result)) *Entry {
	t.mu.Lock()
	id := 1
	for existing := range t.entries {
		if existing >= id {
			id = existing + 1
		}
	}
	entry := &Entry{
		ID:   id,
		Text: j.Text(),
		PID:  j.Pid(),
		job:  j,
		done: make(chan struct{}),
	}
	t.entries[id] = entry
	t.mu.Unlock()

	go func() {
		defer close(entry.done)
		entry.result = j.Wait()
		j.Close()
		if onDone != nil {
			onDone(entry.result)
		}
	}()
	return entry
}

// FindPid finds the entry owning the process pid.
func (t *Table) FindPid(pid int) (*Entry, bool) {
	for _, entry := range t.List() {
		for _, p := range entry.Pids() {
			if p == pid {
				return entry, true
			}
		}
	}
	return nil, false
}

// Get finds the entry with the given ID.
func (t *Table) Get(id int) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[id]
	return entry, ok
}

// List returns all entries ordered by ID.
func (t *Table) List() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Reap removes and returns finished entries ordered by ID.
func (t *Table) Reap() []*Entry {
	var done []*Entry
	for _, entry := range t.List() {
		if entry.Done() {
			done = append(done, entry)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range done {
		delete(t.entries, entry.ID)
	}
	return done
}

// Remove forgets an entry.
func (t *Table) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
