package core

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"github.com/jboxsh/jbox/core/config"
	"github.com/jboxsh/jbox/core/logger"
	"github.com/jboxsh/jbox/core/shell"
	"github.com/jboxsh/jbox/core/ttylog"
	"github.com/jboxsh/jbox/core/vos"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
)

// Server runs one interpreter per SSH session.
type Server struct {
	configuration *config.Configuration
	events        *logger.Logger
	log           *log.Logger
	sshServer     *ssh.Server

	// NewFs creates the filesystem of a session, defaults to the host's.
	NewFs func() afero.Fs
	// SelfExe is passed to every interpreter, see InterpreterOptions.
	SelfExe string
}

// NewServer creates a server for configuration. Events may be nil.
func NewServer(configuration *config.Configuration, events *logger.Logger, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	if !configuration.SSH.AllowAnyPassword && len(configuration.SSH.Passwords) == 0 {
		return nil, fmt.Errorf("no ssh passwords configured and allow_any_password is false")
	}

	server := &Server{
		configuration: configuration,
		events:        events,
		log:           logger,
		NewFs:         afero.NewOsFs,
	}

	server.sshServer = &ssh.Server{
		Addr:    fmt.Sprintf(":%d", configuration.SSH.Port),
		Handler: server.HandleConnection,
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			ok := configuration.ValidPassword(password)
			if !ok {
				logger.Printf("Rejected password for %q from %s", ctx.User(), ctx.RemoteAddr())
			}
			return ok
		},
	}

	keyPem, err := configuration.HostKeyPem()
	if err != nil {
		return nil, err
	}
	if keyPem != nil {
		if err := server.sshServer.SetOption(ssh.HostKeyPEM(keyPem)); err != nil {
			return nil, err
		}
	}

	return server, nil
}

func (s *Server) recorder() logger.Recorder {
	if s.events == nil {
		return nil
	}
	return s.events.NewSession()
}

// sessionEnviron builds the starting environment of a session: the server's
// HOME and PATH, the user, and whatever the client sent.
func sessionEnviron(sess ssh.Session, term string) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}
	path := os.Getenv(vos.EnvPath)
	if path == "" {
		path = DefaultPath
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	environ := []string{
		vos.EnvHome + "=" + home,
		vos.EnvPath + "=" + path,
		shell.EnvUser + "=" + sess.User(),
		shell.EnvHostname + "=" + hostname,
	}
	if term != "" {
		environ = append(environ, "TERM="+term)
	}
	return append(environ, sess.Environ()...)
}

// HandleConnection runs a session: an exec request runs one line and exits
// with its status, anything else gets an interactive shell.
func (s *Server) HandleConnection(sess ssh.Session) {
	ptyInfo, winch, isPTY := sess.Pty()
	events := s.recorder()
	sessionID := uuid.NewString()
	if sessionLogger, ok := events.(*logger.SessionLogger); ok {
		sessionID = sessionLogger.SessionID()
	}

	rawCommand := sess.RawCommand()
	interactive := rawCommand == ""
	if events != nil {
		err := events.Record(&logger.SessionStart{
			User:        sess.User(),
			RemoteAddr:  sess.RemoteAddr().String(),
			Term:        ptyInfo.Term,
			Interactive: interactive,
		})
		if err != nil {
			s.log.Printf("recording session start: %v", err)
		}
	}

	environ := sessionEnviron(sess, ptyInfo.Term)
	home := vos.NewMapEnvFromEnvList(environ).Getenv(vos.EnvHome)
	state := vos.NewState(s.NewFs(), environ, home)
	state.SetPTY(vos.PTY{
		Width:  ptyInfo.Window.Width,
		Height: ptyInfo.Window.Height,
		Term:   ptyInfo.Term,
		IsPTY:  isPTY,
	})

	// Set up I/O and logging.
	var stdout, stderr io.Writer = sess, sess.Stderr()
	if rate := s.configuration.SSH.OutputRate; rate > 0 {
		bucket := ratelimit.NewBucketWithRate(float64(rate), int64(rate))
		stdout = ratelimit.Writer(stdout, bucket)
		stderr = ratelimit.Writer(stderr, bucket)
	}
	var vio vos.VIO = vos.NewVIOAdapter(sess, stdout, stderr)

	if interactive {
		recorder, recording, err := s.startRecording(vio, sessionID, sess, ptyInfo)
		if err != nil {
			s.log.Printf("Couldn't record session %s: %v", sessionID, err)
		}
		if recorder != nil {
			defer recording.Close()
			defer recorder.Close()
			vio = recorder
		}
	}

	interp := NewInterpreter(s.configuration, InterpreterOptions{
		State:   state,
		Stdin:   vio.Stdin(),
		Stdout:  vio.Stdout(),
		Stderr:  vio.Stderr(),
		Events:  events,
		Log:     s.log,
		Color:   isPTY,
		SelfExe: s.SelfExe,
	})
	defer interp.Close()

	// Watch for window changes.
	var (
		mu           sync.Mutex
		widthChanged func()
	)
	if isPTY {
		go func() {
			for window := range winch {
				pty := state.GetPTY()
				pty.Width = window.Width
				pty.Height = window.Height
				state.SetPTY(pty)

				mu.Lock()
				notify := widthChanged
				mu.Unlock()
				if notify != nil {
					notify()
				}
			}
		}()
	}

	if !interactive {
		sess.Exit(interp.RunLine(sess.Context(), rawCommand))
		return
	}

	session, err := shell.NewSession(interp, shell.SessionConfig{
		Stdout:       vio.Stdout(),
		Stderr:       vio.Stderr(),
		HistoryLimit: s.configuration.HistoryLimit,
		Width: func() int {
			if width := state.GetPTY().Width; width > 0 {
				return width
			}
			return 80
		},
		IsTerminal: func() bool {
			return isPTY
		},
		// The client's terminal is already raw.
		MakeRaw: func() error { return nil },
		ExitRaw: func() error { return nil },
		OnWidthChanged: func(f func()) {
			mu.Lock()
			defer mu.Unlock()
			widthChanged = f
		},
	})
	if err != nil {
		s.log.Printf("Starting session %s: %v", sessionID, err)
		sess.Exit(1)
		return
	}
	defer session.Close()

	signals := make(chan ssh.Signal, 1)
	sess.Signals(signals)
	go func() {
		for {
			select {
			case sig := <-signals:
				if sig == ssh.SIGINT {
					session.Interrupt()
				}
			case <-sess.Context().Done():
				return
			}
		}
	}()

	sess.Exit(session.Run(sess.Context()))
}

func (s *Server) startRecording(vio vos.VIO, sessionID string, sess ssh.Session, ptyInfo ssh.Pty) (*ttylog.Recorder, io.Closer, error) {
	name := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405Z"), sessionID, ttylog.AsciicastFileExt)
	fd, err := s.configuration.CreateRecording(name)
	if err != nil || fd == nil {
		return nil, nil, err
	}

	header := ttylog.DefaultAsciicastHeader()
	header.Title = fmt.Sprintf("%s@%s", sess.User(), sess.RemoteAddr())
	if ptyInfo.Window.Width > 0 {
		header.Width = ptyInfo.Window.Width
		header.Height = ptyInfo.Window.Height
	}
	if ptyInfo.Term != "" {
		header.Env["TERM"] = ptyInfo.Term
	}

	recorder := ttylog.NewRecorder(vio, ttylog.NewAsciicastLogSink(fd, header))
	recorder.Log = s.log
	return recorder, fd, nil
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.Printf("- Starting SSH server on %s", l.Addr())
	return s.sshServer.Serve(l)
}

func (s *Server) ListenAndServe() error {
	s.log.Printf("- Starting SSH server on %s", s.sshServer.Addr)
	return s.sshServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.sshServer.Shutdown(ctx)
}
