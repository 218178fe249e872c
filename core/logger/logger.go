package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder stores events.
type Recorder interface {
	Record(event Event) error
}

// LogRecorder is a callback that stores entries in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs for the interpreter.
type Logger struct {
	Record LogRecorder

	// Now is the clock, defaults to time.Now.
	Now func() time.Time
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) record(sessionID string, event Event) error {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	le := &LogEntry{
		TimestampMicros: now().UnixMicro(),
		SessionID:       sessionID,
	}
	le.SetEvent(event)

	return l.Record(le)
}

// NewSession creates a logger with a fresh random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return l.WithSessionID(uuid.NewString())
}

// WithSessionID creates a logger with the given session ID.
func (l *Logger) WithSessionID(id string) *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: id}
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ Recorder = (*SessionLogger)(nil)

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record implements Recorder.
func (l *SessionLogger) Record(event Event) error {
	return l.record(l.sessionID, event)
}

// NopRecorder discards events.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

// Record implements Recorder.
func (NopRecorder) Record(Event) error {
	return nil
}
