package attack

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/result"
)

var (
	// ErrNotImplemented marks an attack that does not provide one of its
	// lifecycle operations. It is never treated as an environmental failure.
	ErrNotImplemented = errors.New("attack operation not implemented")

	// ErrAlreadyStarted is returned by a second RunAttack on the same instance.
	ErrAlreadyStarted = errors.New("attack already started")

	// ErrStopped is returned by RunAttack after EndAttack.
	ErrStopped = errors.New("attack already ended")

	// ErrToolMissing means a binary the attack cannot work without is absent.
	ErrToolMissing = errors.New("required tool not installed")

	// ErrTimeout means the attack ran out of time without a result.
	ErrTimeout = errors.New("attack timed out")
)

// Attack is the two-phase contract every attack kind implements.
//
// RunAttack starts the attack against the bound target and blocks until it
// finishes, fails or ctx is cancelled. Instances run at most once.
//
// EndAttack stops whatever RunAttack left running and finalizes partial
// state. It must succeed when RunAttack was never called or failed, and
// calling it again is a no-op.
type Attack interface {
	RunAttack(ctx context.Context) error
	EndAttack(ctx context.Context) error
}

// Reporter is implemented by attacks that produce a stored result.
type Reporter interface {
	Result() *result.CrackResult
}

// Unimplemented satisfies Attack by failing both operations with
// ErrNotImplemented. It stands in for kinds that are declared but not yet
// written, so dispatching to them fails loudly.
type Unimplemented struct{}

func (Unimplemented) RunAttack(context.Context) error { return ErrNotImplemented }
func (Unimplemented) EndAttack(context.Context) error { return ErrNotImplemented }

// State is the observable phase of an attack.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Lifecycle tracks idle -> running -> stopped. There is no way back to idle.
// Concrete attacks embed it.
type Lifecycle struct {
	state   State
	started time.Time
	mu      sync.Mutex
}

// Start moves idle to running.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}
	l.state = StateRunning
	l.started = time.Now()
	return nil
}

// Stop moves to stopped from either earlier state. It reports whether this
// call made the transition, so finalization runs once.
func (l *Lifecycle) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStopped {
		return false
	}
	l.state = StateStopped
	return true
}

// State returns the current phase.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Elapsed is the time since Start, or zero if never started.
func (l *Lifecycle) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started.IsZero() {
		return 0
	}
	return time.Since(l.started)
}

// StatusUpdate represents a real-time status message from an attack.
type StatusUpdate struct {
	Attack   string
	Target   string
	Message  string
	Progress float64 // 0.0 - 1.0, negative when unknown
	Elapsed  time.Duration
	Done     bool
	Success  bool
}
