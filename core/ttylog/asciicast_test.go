package ttylog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeConversions(t *testing.T) {
	cases := map[string]struct {
		microseconds int64
		seconds      float64
	}{
		"precision": {
			microseconds: 1,
			seconds:      1e-6,
		},
		"negative": {
			microseconds: -631119539e6,
			seconds:      -631119539,
		},
		"positive": {
			microseconds: 631119539e6,
			seconds:      631119539,
		},
		"bigprecise": {
			microseconds: 123456789987654,
			seconds:      123456789.987654,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s2m := secondsToMicroseconds(tc.seconds)
			m2s := microsecondsToSeconds(tc.microseconds)

			// Only allow delta to be to the NS
			assert.InDelta(t, m2s, tc.seconds, float64(time.Nanosecond)/float64(time.Second))
			assert.Equal(t, s2m, tc.microseconds)
		})
	}
}

func TestAsciicastLogSink(t *testing.T) {
	out := &bytes.Buffer{}
	header := DefaultAsciicastHeader()
	header.Title = "test"
	sink := NewAsciicastLogSink(out, header)

	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	require.NoError(t, sink(&Entry{TimestampMicros: base, Op: OpIO, FD: FDStdout, Data: []byte("$ ")}))
	require.NoError(t, sink(&Entry{TimestampMicros: base + 500000, Op: OpIO, FD: FDStdin, Data: []byte("l")}))
	require.NoError(t, sink(&Entry{TimestampMicros: base + 1500000, Op: OpIO, FD: FDStderr, Data: []byte("err\r\n")}))
	require.NoError(t, sink(&Entry{TimestampMicros: base + 2000000, Op: OpClose, FD: FDStdout}))

	want := `{"version":2,"width":80,"height":24,"timestamp":1609459200,"title":"test","env":{"SHELL":"/bin/jsh","TERM":"xterm-256color"}}
[0,"o","$ "]
[0.5,"i","l"]
[1.5,"o","err\r\n"]
`
	assert.Equal(t, want, out.String())
}

func TestAsciicastLogSource(t *testing.T) {
	input := `{"version":2,"width":100,"height":30,"timestamp":1609459200}
[0,"o","$ "]

[0.25,"i","x"]
[0.5,"r","100x30"]
[1,"o","done"]
`
	source := NewAsciicastLogSource(strings.NewReader(input))

	var entries []*Entry
	require.NoError(t, Replay(source, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}))

	assert.Equal(t, 100, source.Header.Width)
	assert.Equal(t, []*Entry{
		{TimestampMicros: 0, Op: OpIO, FD: FDStdout, Data: []byte("$ ")},
		{TimestampMicros: 250000, Op: OpIO, FD: FDStdin, Data: []byte("x")},
		{TimestampMicros: 1000000, Op: OpIO, FD: FDStdout, Data: []byte("done")},
	}, entries)
}

func TestAsciicastLogSource_errors(t *testing.T) {
	cases := map[string]string{
		"version":    `{"version":1}` + "\n",
		"header":     "not json\n",
		"short line": `{"version":2}` + "\n" + `[0,"o"]` + "\n",
		"bad types":  `{"version":2}` + "\n" + `["0","o","x"]` + "\n",
	}

	for tn, input := range cases {
		t.Run(tn, func(t *testing.T) {
			err := Replay(NewAsciicastLogSource(strings.NewReader(input)), func(*Entry) error {
				return nil
			})
			assert.Error(t, err)
		})
	}
}
