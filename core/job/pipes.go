package job

import (
	"errors"
	"io"
	"os"
	"sync"
)

// onceCloser closes the wrapped closer at most once.
type onceCloser struct {
	io.Closer
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() {
		c.err = c.Closer.Close()
	})
	return c.err
}

// pipeEnd is one end of an os.Pipe.
type pipeEnd struct {
	*os.File
	closer onceCloser
}

func newPipeEnd(f *os.File) *pipeEnd {
	end := &pipeEnd{File: f}
	end.closer.Closer = f
	return end
}

func (e *pipeEnd) Close() error {
	return e.closer.Close()
}

// pipeChain holds the pipes between the stages of a job. Stage i writes to
// writer i and stage i+1 reads from reader i. Every end is handed out once,
// the taker is then responsible for closing it.
type pipeChain struct {
	readers []*pipeEnd
	writers []*pipeEnd

	// all ends, taken or not, for cleanup
	all listCloser
}

func newPipeChain(n int) (*pipeChain, error) {
	chain := &pipeChain{}
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			chain.closeAll()
			return nil, err
		}
		re, we := newPipeEnd(r), newPipeEnd(w)
		chain.readers = append(chain.readers, re)
		chain.writers = append(chain.writers, we)
		chain.all = append(chain.all, re, we)
	}
	return chain, nil
}

// takeReader hands out the read end feeding stage i, nil for the first stage.
func (c *pipeChain) takeReader(stage int) *pipeEnd {
	if stage == 0 || stage-1 >= len(c.readers) {
		return nil
	}
	end := c.readers[stage-1]
	c.readers[stage-1] = nil
	return end
}

// takeWriter hands out the write end stage i writes to, nil for the last
// stage.
func (c *pipeChain) takeWriter(stage int) *pipeEnd {
	if stage >= len(c.writers) {
		return nil
	}
	end := c.writers[stage]
	c.writers[stage] = nil
	return end
}

func (c *pipeChain) closeAll() error {
	if c == nil {
		return nil
	}
	return c.all.Close()
}

type listCloser []io.Closer

// Close closes every element and joins the errors. Already closed files are
// not reported.
func (lc listCloser) Close() error {
	var errs []error
	for _, v := range lc {
		if err := v.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
