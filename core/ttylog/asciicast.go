package ttylog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// AsciicastFileExt holds the suggested file extension for asciicast files.
const AsciicastFileExt = "cast"

// AsciicastHeader is the first line of an asciicast file.
type AsciicastHeader struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Title     string            `json:"title,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// DefaultAsciicastHeader gives generic settings that should work to display
// most outputs.
func DefaultAsciicastHeader() AsciicastHeader {
	return AsciicastHeader{
		Width:  80,
		Height: 24,
		Title:  "jsh session",
		Env: map[string]string{
			"TERM":  "xterm-256color",
			"SHELL": "/bin/jsh",
		},
	}
}

func writeJSONLine(w io.Writer, structure interface{}) error {
	line, err := json.Marshal(structure)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", string(line))
	return err
}

// NewAsciicastLogSink creates a LogSink compatible with the asciicast v2
// format. The header is written with the first entry, its version and
// timestamp are filled in.
//
// See: https://github.com/asciinema/asciinema/blob/develop/doc/asciicast-v2.md
func NewAsciicastLogSink(w io.Writer, header AsciicastHeader) LogSink {
	var (
		firstLogTimeMicros int64
		once               sync.Once
	)

	return func(entry *Entry) error {
		var headerErr error
		once.Do(func() {
			firstLogTimeMicros = entry.TimestampMicros
			header.Version = 2
			header.Timestamp = time.UnixMicro(firstLogTimeMicros).Unix()
			headerErr = writeJSONLine(w, header)
		})
		if headerErr != nil {
			return headerErr
		}

		deltaSecond := microsecondsToSeconds(entry.TimestampMicros - firstLogTimeMicros)

		switch entry.Op {
		case OpIO:
			direction := "o"
			if entry.FD == FDStdin {
				direction = "i"
			}
			return writeJSONLine(w, &asciicastLogLine{deltaSecond, direction, string(entry.Data)})
		case OpClose:
			// No-op.
			return nil
		default:
			return fmt.Errorf("unknown event: %d", entry.Op)
		}
	}
}

type AsciicastLogSource struct {
	r             *bufio.Reader
	consumeHeader sync.Once
	headerErr     error

	// Header is set once the first entry has been read.
	Header AsciicastHeader
}

var _ LogSource = (*AsciicastLogSource)(nil)

// NewAsciicastLogSource reads log events from an Asciicast formatted file.
func NewAsciicastLogSource(r io.Reader) *AsciicastLogSource {
	return &AsciicastLogSource{r: bufio.NewReader(r)}
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (log *AsciicastLogSource) Next() (*Entry, error) {
	log.consumeHeader.Do(func() {
		line, err := log.r.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			log.headerErr = err
			return
		}
		if err := json.Unmarshal(line, &log.Header); err != nil {
			log.headerErr = fmt.Errorf("malformed header: %w", err)
			return
		}
		if log.Header.Version != 2 {
			log.headerErr = fmt.Errorf("unsupported asciicast version %d", log.Header.Version)
		}
	})
	if log.headerErr != nil {
		return nil, log.headerErr
	}

	for {
		line, err := log.r.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}

		if len(line) <= 1 {
			// Skip blank lines
			continue
		}

		var asciicastLine asciicastLogLine
		if err := json.Unmarshal(line, &asciicastLine); err != nil {
			return nil, err
		}

		// Asciicast doesn't support stderr so it's collapsed into stdout.
		var fd FD
		switch asciicastLine.EventType {
		case "o":
			fd = FDStdout
		case "i":
			fd = FDStdin
		default:
			// skip unknown events
			continue
		}

		return &Entry{
			TimestampMicros: secondsToMicroseconds(asciicastLine.TimeSeconds),
			Op:              OpIO,
			FD:              fd,
			Data:            []byte(asciicastLine.EventData),
		}, nil
	}
}

type asciicastLogLine struct {
	TimeSeconds float64
	EventType   string
	EventData   string
}

func (log *asciicastLogLine) UnmarshalJSON(data []byte) error {
	var v []interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if count := len(v); count != 3 {
		return fmt.Errorf("malformed line, expected 3 entries got %d", count)
	}

	var timeOk, typeOk, dataOk bool
	log.TimeSeconds, timeOk = v[0].(float64)
	log.EventType, typeOk = v[1].(string)
	log.EventData, dataOk = v[2].(string)

	if !timeOk || !typeOk || !dataOk {
		return fmt.Errorf("malformed data in line: %q", v)
	}

	return nil
}

func (log *asciicastLogLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{log.TimeSeconds, log.EventType, log.EventData})
}

func microsecondsToSeconds(microseconds int64) (seconds float64) {
	return (float64(microseconds) * float64(time.Microsecond)) / float64(time.Second)
}

func secondsToMicroseconds(seconds float64) (microseconds int64) {
	return int64(float64(seconds)*float64(time.Second)) / int64(time.Microsecond)
}
