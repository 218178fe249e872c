package job

import (
	"context"
	"errors"
	"io"
	"sync"
)

const inputChunk = 32 * 1024

// Input shares one terminal or session stream between the line editor and
// the jobs reading stdin. The source is only read when a consumer asks, and
// data that arrives after its consumer gave up is kept for the next one, so
// a job that ends never swallows the line typed after it.
type Input struct {
	src io.Reader

	mu      sync.Mutex
	pending []byte
	err     error
	filled  chan struct{} // non-nil while a read of src is in flight
}

// NewInput wraps src. An *Input is returned unchanged.
func NewInput(src io.Reader) *Input {
	if in, ok := src.(*Input); ok {
		return in
	}
	return &Input{src: src}
}

// Read implements io.Reader.
func (in *Input) Read(p []byte) (int, error) {
	return in.ReadContext(context.Background(), p)
}

// ReadContext reads like Read but gives up with ctx.Err() once ctx is done.
// A read of the source that's still in flight then completes into the
// buffer.
func (in *Input) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		in.mu.Lock()
		if len(in.pending) > 0 {
			n := copy(p, in.pending)
			in.pending = in.pending[n:]
			in.mu.Unlock()
			return n, nil
		}
		if in.err != nil {
			err := in.err
			in.mu.Unlock()
			return 0, err
		}
		if in.filled == nil {
			in.filled = make(chan struct{})
			go in.fill(in.filled)
		}
		filled := in.filled
		in.mu.Unlock()

		select {
		case <-filled:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (in *Input) fill(filled chan struct{}) {
	buf := make([]byte, inputChunk)
	n, err := in.src.Read(buf)

	in.mu.Lock()
	in.pending = append(in.pending, buf[:n]...)
	if err != nil {
		in.err = err
	}
	in.filled = nil
	in.mu.Unlock()
	close(filled)
}

// Unread puts data back in front of the buffer.
func (in *Input) Unread(data []byte) {
	if len(data) == 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pending = append(append([]byte(nil), data...), in.pending...)
}

// Gate reads from an Input only while it's open. Closing the gate abandons
// a blocked read without losing its data.
type Gate struct {
	in *Input

	mu     sync.Mutex
	opened chan struct{} // closed while the gate is open
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGate returns an open gate over in.
func NewGate(in *Input) *Gate {
	g := &Gate{in: in, opened: make(chan struct{})}
	g.Open()
	return g
}

// Open lets reads through.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	close(g.opened)
}

// Close holds reads until the next Open.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.cancel = nil
	g.opened = make(chan struct{})
}

// Read implements io.Reader, blocking while the gate is closed.
func (g *Gate) Read(p []byte) (int, error) {
	for {
		g.mu.Lock()
		opened, ctx := g.opened, g.ctx
		g.mu.Unlock()

		<-opened
		n, err := g.in.ReadContext(ctx, p)
		if n == 0 && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			continue
		}
		return n, err
	}
}

// stdinPump copies an Input into the pipe of the first stage until the
// Input ends or the pump is stopped. A chunk the stage never took goes back
// to the Input.
type stdinPump struct {
	in     *Input
	w      *pipeEnd
	cancel context.CancelFunc
	done   chan struct{}
}

func startStdinPump(in *Input, w *pipeEnd, debugf func(string, ...interface{})) *stdinPump {
	ctx, cancel := context.WithCancel(context.Background())
	p := &stdinPump{in: in, w: w, cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, debugf)
	return p
}

func (p *stdinPump) run(ctx context.Context, debugf func(string, ...interface{})) {
	defer close(p.done)
	defer p.w.Close()

	buf := make([]byte, inputChunk)
	for {
		n, err := p.in.ReadContext(ctx, buf)
		if n > 0 {
			written, werr := p.w.Write(buf[:n])
			if werr != nil {
				p.in.Unread(buf[written:n])
				return
			}
		}
		switch {
		case err == nil:
		case err == io.EOF, errors.Is(err, context.Canceled):
			return
		default:
			debugf("stdin pump: %v", err)
			return
		}
	}
}

// stop ends the pump and waits for it. Reads in flight are left to the
// Input.
func (p *stdinPump) stop() {
	if p == nil {
		return
	}
	p.cancel()
	p.w.Close()
	<-p.done
}
