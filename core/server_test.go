package core

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

type eventLog struct {
	mu      sync.Mutex
	entries []*logger.LogEntry
}

func (e *eventLog) record(le *logger.LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, le)
	return nil
}

func (e *eventLog) sessionStarts() (out []*logger.SessionStart) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, le := range e.entries {
		if start, ok := le.GetEvent().(*logger.SessionStart); ok {
			out = append(out, start)
		}
	}
	return out
}

func startTestServer(t *testing.T, events *eventLog) string {
	t.Helper()

	cfg := config.Default()
	cfg.SSH.Passwords = []string{"secret"}
	cfg.EnvFile = ""
	cfg.BinDir = ""

	server, err := NewServer(cfg, &logger.Logger{Record: events.record}, nil)
	require.NoError(t, err)
	server.NewFs = afero.NewMemMapFs
	server.SelfExe = "-"

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(l)
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		if err := <-done; err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			t.Errorf("Serve() = %v", err)
		}
	})

	return l.Addr().String()
}

func dialTestServer(addr, password string) (*gossh.Client, error) {
	return gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            "tester",
		Auth:            []gossh.AuthMethod{gossh.Password(password)},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
}

func TestServer_exec(t *testing.T) {
	events := &eventLog{}
	addr := startTestServer(t, events)

	client, err := dialTestServer(addr, "secret")
	require.NoError(t, err)
	defer client.Close()

	t.Run("output", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		out, err := sess.Output("cd / && pwd")
		require.NoError(t, err)
		assert.Equal(t, "/\n", string(out))
	})

	t.Run("exit status", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		err = sess.Run("exit 3")
		var exitErr *gossh.ExitError
		require.True(t, errors.As(err, &exitErr), "got %v", err)
		assert.Equal(t, 3, exitErr.ExitStatus())
	})

	t.Run("unknown command", func(t *testing.T) {
		sess, err := client.NewSession()
		require.NoError(t, err)
		defer sess.Close()

		err = sess.Run("no-such-command-jbox")
		var exitErr *gossh.ExitError
		require.True(t, errors.As(err, &exitErr), "got %v", err)
		assert.Equal(t, 127, exitErr.ExitStatus())
	})

	starts := events.sessionStarts()
	require.Len(t, starts, 3)
	assert.Equal(t, "tester", starts[0].User)
	assert.False(t, starts[0].Interactive)
}

func TestServer_badPassword(t *testing.T) {
	addr := startTestServer(t, &eventLog{})

	_, err := dialTestServer(addr, "wrong")
	assert.Error(t, err)
}

func TestNewServer_requiresPasswords(t *testing.T) {
	_, err := NewServer(config.Default(), nil, nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.SSH.AllowAnyPassword = true
	_, err = NewServer(cfg, nil, nil)
	assert.NoError(t, err)
}
