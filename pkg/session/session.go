// Package session launches and supervises external ssh processes. The
// launcher owns local-port reservations for tunnels: a port belongs to
// exactly one session from reservation until release.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xlttj/stassh/pkg/logging"
	"github.com/xlttj/stassh/pkg/sshcmd"
)

// Sentinel error for a local port held by another active forward or
// bound by some other process.
var ErrPortInUse = errors.New("local port already in use")

// State is the lifecycle position of a launched session.
type State int

const (
	StatePending State = iota
	StateStarting
	StateRunning
	StateExited
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session tracks one launched ssh process from start to exit. All
// accessors are safe for concurrent use.
type Session struct {
	id   string
	spec sshcmd.CommandSpec

	mu       sync.Mutex
	state    State
	exitCode int
	err      error
	cmd      *exec.Cmd
	done     chan struct{}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Spec() sshcmd.CommandSpec { return s.spec }

// Done is closed once the session reaches Exited or Failed and its
// resources (including any reserved local port) are released.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExitCode reports the process exit status; ok is false unless the
// session reached Exited.
func (s *Session) ExitCode() (code int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.state == StateExited
}

// Err returns the failure reason for Failed sessions, or any stderr
// noise captured from an exited one.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Launcher starts ssh sessions and tracks the local ports reserved by
// active tunnels.
type Launcher struct {
	mu               sync.Mutex
	sessions         map[string]*Session
	activeLocalPorts map[int]string // local port -> session id
}

func NewLauncher() *Launcher {
	return &Launcher{
		sessions:         make(map[string]*Session),
		activeLocalPorts: make(map[int]string),
	}
}

// portAvailable checks if a TCP port can be bound on localhost. The
// reservation map catches our own tunnels; this catches everyone else.
func portAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		logging.LogDebug("Port check: cannot listen on 127.0.0.1:%d: %v", port, err)
		return false
	}
	_ = listener.Close()
	return true
}

// Launch starts the process described by spec. Tunnel specs reserve
// their local port first and fail with ErrPortInUse if it is held. A
// spawn failure (binary missing, permission denied) is reported
// synchronously: the returned session is in StateFailed and the error
// is non-nil. On success the session is Running and a monitor
// goroutine waits for exit.
func (l *Launcher) Launch(spec sshcmd.CommandSpec) (*Session, error) {
	s := &Session{
		id:    uuid.NewString(),
		spec:  spec,
		state: StatePending,
		done:  make(chan struct{}),
	}

	if spec.LocalPort != 0 {
		l.mu.Lock()
		if holder, reserved := l.activeLocalPorts[spec.LocalPort]; reserved {
			l.mu.Unlock()
			logging.LogError("Cannot launch: port %d reserved by session %s", spec.LocalPort, holder)
			return nil, fmt.Errorf("%w: port %d is reserved by another active forward", ErrPortInUse, spec.LocalPort)
		}
		l.activeLocalPorts[spec.LocalPort] = s.id
		l.mu.Unlock()

		if !portAvailable(spec.LocalPort) {
			l.releasePort(spec.LocalPort, s.id)
			return nil, fmt.Errorf("%w: port %d", ErrPortInUse, spec.LocalPort)
		}
	}

	s.mu.Lock()
	s.state = StateStarting
	s.mu.Unlock()

	cmd := exec.Command(spec.Binary, spec.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.err = err
		s.mu.Unlock()
		close(s.done)
		l.releasePort(spec.LocalPort, s.id)
		logging.LogError("Failed to start %s: %v", spec.Binary, err)
		return s, fmt.Errorf("failed to start %s: %w", spec.Binary, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.state = StateRunning
	s.mu.Unlock()

	l.mu.Lock()
	l.sessions[s.id] = s
	l.mu.Unlock()

	logging.LogDebug("Started session %s (PID %d): %s %s", s.id, cmd.Process.Pid, spec.Binary, strings.Join(spec.Args, " "))
	go l.monitor(s, &stderr)
	return s, nil
}

// monitor waits for the process to terminate and moves the session to
// Exited. Resources are released before Done is closed so a caller
// waiting on the channel can immediately rebind the port.
func (l *Launcher) monitor(s *Session, stderr *bytes.Buffer) {
	err := s.cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	s.mu.Lock()
	s.state = StateExited
	s.exitCode = code
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		s.err = errors.New(msg)
	}
	s.mu.Unlock()

	l.mu.Lock()
	delete(l.sessions, s.id)
	if s.spec.LocalPort != 0 {
		if holder, reserved := l.activeLocalPorts[s.spec.LocalPort]; reserved && holder == s.id {
			delete(l.activeLocalPorts, s.spec.LocalPort)
		}
	}
	l.mu.Unlock()

	close(s.done)
	logging.LogDebug("Session %s exited with code %d", s.id, code)
}

// Cancel requests termination of a session. Cancelling a session that
// already reached Exited or Failed is a no-op, not an error. On
// return the process has been reaped and any reserved local port
// released.
func (l *Launcher) Cancel(s *Session) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	state := s.state
	cmd := s.cmd
	s.mu.Unlock()

	switch state {
	case StateExited, StateFailed:
		return nil
	}

	if cmd != nil && cmd.Process != nil {
		logging.LogDebug("Cancelling session %s (PID %d)", s.id, cmd.Process.Pid)
		if err := cmd.Process.Kill(); err != nil {
			logging.LogError("Failed to kill session %s: %v", s.id, err)
		}
	}
	<-s.done
	return nil
}

// PortReserved reports whether a local port is currently held by an
// active session.
func (l *Launcher) PortReserved(port int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, reserved := l.activeLocalPorts[port]
	return reserved
}

// Shutdown cancels every active session. Used on application exit so
// no tunnels are orphaned.
func (l *Launcher) Shutdown() {
	l.mu.Lock()
	active := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		active = append(active, s)
	}
	l.mu.Unlock()

	for _, s := range active {
		_ = l.Cancel(s)
	}
	logging.LogDebug("Launcher shutdown complete, %d sessions cancelled", len(active))
}

func (l *Launcher) releasePort(port int, sessionID string) {
	if port == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, reserved := l.activeLocalPorts[port]; reserved && holder == sessionID {
		delete(l.activeLocalPorts, port)
		logging.LogDebug("Released local port %d reservation for session %s", port, sessionID)
	}
}
