package job

import (
	"bytes"
	"io"
	"sync"
)

// Tee passes writes through to a destination and keeps a copy.
type Tee struct {
	mu        sync.Mutex
	dst       io.Writer
	buf       bytes.Buffer
	limit     int
	truncated bool
}

var _ io.Writer = (*Tee)(nil)

// NewTee creates a Tee writing to dst. A nil dst only captures. If limit is
// positive the copy keeps at most limit bytes, dst still gets everything.
func NewTee(dst io.Writer, limit int) *Tee {
	return &Tee{dst: dst, limit: limit}
}

// Write implements io.Writer. The copy holds exactly the bytes dst accepted.
func (t *Tee) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := len(p), error(nil)
	if t.dst != nil {
		n, err = t.dst.Write(p)
	}
	t.capture(p[:n])
	return n, err
}

func (t *Tee) capture(p []byte) {
	if t.limit > 0 {
		room := t.limit - t.buf.Len()
		if room < len(p) {
			t.truncated = true
			if room <= 0 {
				return
			}
			p = p[:room]
		}
	}
	t.buf.Write(p)
}

// Bytes returns a copy of the captured output.
func (t *Tee) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf.Bytes()...)
}

// Truncated reports whether output past the limit was dropped from the copy.
func (t *Tee) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}

// Reset releases the captured bytes.
func (t *Tee) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = bytes.Buffer{}
}
