package ttylog

// FD identifies the stream an entry was read from or written to.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

func (fd FD) String() string {
	switch fd {
	case FDStdin:
		return "stdin"
	case FDStdout:
		return "stdout"
	case FDStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Op is the kind of a log entry.
type Op int

const (
	// OpIO carries data read or written.
	OpIO Op = iota
	// OpClose marks the stream as closed.
	OpClose
)

// Entry is a single recorded terminal event.
type Entry struct {
	TimestampMicros int64
	Op              Op
	FD              FD
	Data            []byte
}
