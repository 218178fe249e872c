package ttylog

import (
	"io"
	"io/ioutil"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/jboxsh/jbox/core/vos"
)

var (
	crlf = regexp.MustCompile(`\r?\n`)

	sleep = time.Sleep
	now   = time.Now
)

// LogSink receives log events.
type LogSink func(t *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(logEntry *Entry) error {
		once.Do(func() {
			prevTimeMicros = logEntry.TimestampMicros
		})

		delta := logEntry.TimestampMicros - prevTimeMicros
		prevTimeMicros = logEntry.TimestampMicros

		sleepDuration := time.Duration(delta) * time.Microsecond
		if maxSleep > 0 && sleepDuration > maxSleep {
			sleepDuration = maxSleep
		}
		if sleepDuration > 0 {
			sleep(sleepDuration)
		}

		return next(logEntry)
	}
}

// NewCRLFAdapter rewrites bare \n as \r\n. Output recorded without a terminal
// creeps across the screen on playback otherwise because the cursor position
// is never reset.
func NewCRLFAdapter(next LogSink) LogSink {
	return func(logEntry *Entry) error {
		if logEntry.Op == OpIO {
			logEntry.Data = crlf.ReplaceAll(logEntry.Data, []byte("\r\n"))
		}

		return next(logEntry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer
func NewClientOutput(w io.Writer) LogSink {
	return func(logEntry *Entry) error {
		if logEntry.Op != OpIO || logEntry.FD == FDStdin {
			return nil
		}
		_, err := w.Write(logEntry.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		logEntry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(logEntry); err != nil {
			return err
		}
	}
}

// Recorder wraps the streams of a session and forwards everything read and
// written through them to a LogSink.
type Recorder struct {
	*vos.VIOAdapter
	mutex  sync.Mutex
	output LogSink
	closed bool

	// Log receives sink errors, they never fail the wrapped I/O.
	Log *log.Logger
}

func (r *Recorder) emit(entry *Entry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return
	}

	if err := r.output(entry); err != nil {
		logger := r.Log
		if logger == nil {
			logger = log.New(ioutil.Discard, "", 0)
		}
		logger.Printf("recording %s: %v", entry.FD, err)
	}
}

func (r *Recorder) recordIO(mockFd FD, data []byte, dest func([]byte) (int, error)) (int, error) {
	eventTime := now()
	amount, err := dest(data)
	if amount > 0 {
		// Sinks may keep the slice, the caller may not.
		recorded := append([]byte(nil), data[:amount]...)
		r.emit(&Entry{
			TimestampMicros: eventTime.UnixMicro(),
			Op:              OpIO,
			FD:              mockFd,
			Data:            recorded,
		})
	}
	return amount, err
}

// Close records the end of the session, later I/O isn't recorded. The
// wrapped streams stay open.
func (r *Recorder) Close() error {
	r.emit(&Entry{TimestampMicros: now().UnixMicro(), Op: OpClose, FD: FDStdout})

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
	return nil
}

var _ vos.VIO = (*Recorder)(nil)

type recorderReadCloser struct {
	r       *Recorder
	mockFd  FD
	wrapped io.ReadCloser
}

var _ io.ReadCloser = (*recorderReadCloser)(nil)

func (rc *recorderReadCloser) Read(p []byte) (int, error) {
	return rc.r.recordIO(rc.mockFd, p, rc.wrapped.Read)
}

func (rc *recorderReadCloser) Close() error {
	return rc.wrapped.Close()
}

type recorderWriteCloser struct {
	r       *Recorder
	mockFd  FD
	wrapped io.WriteCloser
}

var _ io.WriteCloser = (*recorderWriteCloser)(nil)

func (rc *recorderWriteCloser) Write(p []byte) (int, error) {
	return rc.r.recordIO(rc.mockFd, p, rc.wrapped.Write)
}

func (rc *recorderWriteCloser) Close() error {
	return rc.wrapped.Close()
}

// NewRecorder creates a logger that forwards all events to output.
func NewRecorder(toWrap vos.VIO, output LogSink) *Recorder {
	recorder := &Recorder{
		output: output,
	}

	recorder.VIOAdapter = &vos.VIOAdapter{
		IStdin:  &recorderReadCloser{mockFd: FDStdin, r: recorder, wrapped: toWrap.Stdin()},
		IStdout: &recorderWriteCloser{mockFd: FDStdout, r: recorder, wrapped: toWrap.Stdout()},
		IStderr: &recorderWriteCloser{mockFd: FDStderr, r: recorder, wrapped: toWrap.Stderr()},
	}

	return recorder
}
