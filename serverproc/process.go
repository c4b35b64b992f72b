// Package serverproc launches the server-under-test as a child process,
// captures its output, and reaps it (and anything it spawned) at teardown.
package serverproc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// Spec describes how to launch the server-under-test.
type Spec struct {
	// Command is the launch command, typically a build-and-run invocation
	// with the server's coverage instrumentation feature enabled.
	Command []string

	// Env holds environment overrides, merged over the harness's own
	// environment. Coverage-collection configuration travels here.
	Env map[string]string

	// LogPath receives the server's combined stdout and stderr.
	LogPath string
}

// Process is the ownership handle for a launched server. The process runs in
// its own process group, so stopping the handle reaps every process the
// launch command spawned, not just the immediate child.
type Process struct {
	cmd     *exec.Cmd
	logFile *os.File
	logPath string
	waitCh  chan error
	logger  Logger
}

// Start spawns the server asynchronously and returns once the process exists.
// It does not wait for the server to be ready; see PortProber for that.
func Start(ctx context.Context, spec Spec, logger Logger) (*Process, error) {
	if logger == nil {
		logger = nullLogger{}
	}
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("empty server command")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logFile, err := os.Create(spec.LogPath)
	if err != nil {
		return nil, fmt.Errorf("creating server log file: %w", err)
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	logger.Printf("launching server: %s", shellescape.QuoteCommand(spec.Command))
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("starting %s: %w", spec.Command[0], err)
	}

	p := &Process{
		cmd:     cmd,
		logFile: logFile,
		logPath: spec.LogPath,
		waitCh:  make(chan error, 1),
		logger:  logger,
	}
	go func() { p.waitCh <- cmd.Wait() }()
	return p, nil
}

func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Stop interrupts the server's whole process group, waits up to grace for it
// to exit, then kills the group. Signal errors on an already-dead group are
// expected and ignored; the goal is simply that nothing is left listening.
func (p *Process) Stop(grace time.Duration) error {
	defer p.logFile.Close()

	pgid := p.cmd.Process.Pid
	if err := syscall.Kill(-pgid, syscall.SIGINT); err != nil {
		p.logger.Printf("interrupt to process group %d: %s", pgid, err)
	}

	if grace <= 0 {
		grace = time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-p.waitCh:
		p.logger.Printf("server (pid %d) exited: %v", pgid, err)
		return nil
	case <-timer.C:
	}

	p.logger.Printf("server (pid %d) did not exit within %s, killing process group", pgid, grace)
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing process group %d: %w", pgid, err)
	}
	<-p.waitCh
	return nil
}

// DumpLog copies the captured server output to w. Called only on the failure
// path; a successful run never reads the log back.
func (p *Process) DumpLog(w io.Writer) error {
	f, err := os.Open(p.logPath)
	if err != nil {
		return fmt.Errorf("opening server log: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading server log: %w", err)
	}
	return nil
}
