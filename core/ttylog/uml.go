package ttylog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// UMLLogFileExt holds the file extension of user-mode-linux TTY logs.
const UMLLogFileExt = "log"

type umlOp int32

const (
	opOpen  umlOp = 1
	opClose umlOp = 2
	opWrite umlOp = 3
	opExec  umlOp = 4
)

type umlDir int32

const (
	dirRead  umlDir = 1
	dirWrite umlDir = 2
)

type event struct {
	Operation    int32  // Operation, maps into umlOp.
	Tty          uint32 // Should always be 0.
	Size         int32  // Number of bytes following this event that represent the data.
	Direction    int32  // Data direction, maps into umlDir.
	Seconds      uint32 // UNIX timestamp of the event.
	Microseconds uint32 // Microseconds after the timestamp of the event.
}

// The format matches User Mode Linux TTY recordings.
func logEvent(out io.Writer, timestamp time.Time, mockFd FD, op umlOp, data []byte) error {
	sec := timestamp.UnixNano() / int64(time.Second)
	usec := (timestamp.UnixNano() % int64(time.Second)) / int64(time.Microsecond)

	direction := dirWrite
	if mockFd == FDStdin {
		direction = dirRead
	}

	eventData := []interface{}{
		int32(op),
		uint32(0), // TTY, always 0
		int32(len(data)),
		int32(direction),
		uint32(sec),
		uint32(usec),
	}

	for _, v := range eventData {
		err := binary.Write(out, binary.LittleEndian, v)
		if err != nil {
			return err
		}
	}

	if len(data) > 0 {
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	return nil
}

// NewUMLLogSink creates a LogSink compatible with the user-mode-linux TTY.
func NewUMLLogSink(w io.Writer) LogSink {
	return func(entry *Entry) error {
		timestamp := time.UnixMicro(entry.TimestampMicros)

		switch entry.Op {
		case OpIO:
			return logEvent(w, timestamp, entry.FD, opWrite, entry.Data)
		case OpClose:
			return logEvent(w, timestamp, entry.FD, opClose, nil)
		default:
			return fmt.Errorf("unknown event: %d", entry.Op)
		}
	}
}

// UMLLogSource parses log events from a user-mode-linux formatted file.
type UMLLogSource struct {
	r io.Reader
}

var _ LogSource = (*UMLLogSource)(nil)

// NewUMLLogSource reads log events from a user-mode-linux formatted file.
func NewUMLLogSource(r io.Reader) *UMLLogSource {
	return &UMLLogSource{r: r}
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (log *UMLLogSource) Next() (*Entry, error) {
	eventPtr := &event{}

	for {
		// Read the event's data
		if err := binary.Read(log.r, binary.LittleEndian, eventPtr); err != nil {
			return nil, io.EOF
		}
		if eventPtr.Size < 0 {
			return nil, fmt.Errorf("malformed event: negative size %d", eventPtr.Size)
		}
		buf := &bytes.Buffer{}
		if _, err := io.CopyN(buf, log.r, int64(eventPtr.Size)); err != nil {
			return nil, err
		}

		logTime := (int64(eventPtr.Seconds) * int64(time.Second)) / int64(time.Microsecond)
		logTime += int64(eventPtr.Microseconds)

		// UML doesn't distinguish between stdout and stderr so we'll report it all
		// as stdout.
		fd := FDStdout
		if umlDir(eventPtr.Direction) == dirRead {
			fd = FDStdin
		}

		switch umlOp(eventPtr.Operation) {
		case opClose:
			return &Entry{TimestampMicros: logTime, Op: OpClose, FD: fd}, nil
		case opWrite:
			return &Entry{TimestampMicros: logTime, Op: OpIO, FD: fd, Data: buf.Bytes()}, nil
		default:
			// Skip open, exec and unknown operations.
			continue
		}
	}
}
