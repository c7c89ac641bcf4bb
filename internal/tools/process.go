package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ErrProcessDone is returned when signalling a process that already exited.
var ErrProcessDone = errors.New("process already finished")

// stopGrace is how long Stop waits after SIGINT before killing the group.
var stopGrace = 3 * time.Second

// Runner runs a command to completion and returns what it wrote to stdout.
// On a non-zero exit the captured stdout is still returned with the error.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Process wraps an exec.Cmd started in its own process group. It is reaped
// by a background goroutine so Running reflects the real child state.
type Process struct {
	cmd    *exec.Cmd
	name   string
	cancel context.CancelFunc
	output io.Reader
	done   chan struct{}
	err    error
	mu     sync.Mutex
	drain  sync.Once
}

// StartProcess launches a command whose output is discarded. Cancelling ctx
// interrupts the whole process group.
func StartProcess(ctx context.Context, name string, args ...string) (*Process, error) {
	return start(ctx, false, name, args...)
}

// StartPiped launches a command with stdout and stderr merged into a stream
// read through Scanner. The caller must drain it.
func StartPiped(ctx context.Context, name string, args ...string) (*Process, error) {
	return start(ctx, true, name, args...)
}

func start(ctx context.Context, piped bool, name string, args ...string) (*Process, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, name, args...)

	// Use process groups so we can signal the entire tree
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
	}
	cmd.WaitDelay = stopGrace

	var pw *io.PipeWriter
	p := &Process{
		cmd:    cmd,
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if piped {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		cmd.Stdout = pw
		cmd.Stderr = pw
		p.output = pr
	}

	if err := cmd.Start(); err != nil {
		cancel()
		if pw != nil {
			pw.Close()
		}
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		if pw != nil {
			pw.Close()
		}
		close(p.done)
	}()

	return p, nil
}

// RunCapture executes a command and returns its combined output.
func RunCapture(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// RunSilent executes a command and discards output.
func RunSilent(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}

// Scanner returns a line scanner over the merged output of a piped process.
func (p *Process) Scanner() *bufio.Scanner {
	if p.output == nil {
		return bufio.NewScanner(strings.NewReader(""))
	}
	sc := bufio.NewScanner(p.output)
	sc.Split(scanLinesCR)
	return sc
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Interrupt sends SIGINT to the process group of a running process.
func (p *Process) Interrupt() error {
	if !p.Running() {
		return ErrProcessDone
	}
	return syscall.Kill(-p.Pid(), syscall.SIGINT)
}

// Discard reads and drops whatever output is still unread, so a child
// blocked on a full pipe can exit and be reaped.
func (p *Process) Discard() {
	if p.output == nil {
		return
	}
	p.drain.Do(func() {
		go func() { _, _ = io.Copy(io.Discard, p.output) }()
	})
}

// Stop interrupts the process, kills the group if it ignores the interrupt
// within the grace period, and waits for it to be reaped. Unread output is
// discarded.
func (p *Process) Stop() error {
	p.Discard()
	if p.Running() {
		_ = p.Interrupt()
		select {
		case <-p.done:
		case <-time.After(stopGrace):
			_ = syscall.Kill(-p.Pid(), syscall.SIGKILL)
		}
	}
	p.cancel()
	return p.Wait()
}

// Pid returns the process ID.
func (p *Process) Pid() int {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Running returns true if the process has not exited.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Process) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.Pid())
}

// SendInterrupt delivers SIGINT to a live child. A nil, unstarted or
// already finished process is logged and otherwise ignored.
func SendInterrupt(p *Process) {
	if p.Pid() == 0 {
		log.Printf("[send_interrupt] no process to interrupt")
		return
	}
	if err := p.Interrupt(); err != nil {
		log.Printf("[send_interrupt] %s: %v", p, err)
	}
}

// scanLinesCR splits on \n and on bare \r, which reaver and aircrack use to
// redraw progress lines.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
