// Package checker invokes the external conformance tool against the running
// server and reports its exit code, which is the authoritative pass/fail
// signal for the whole run.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/alessio/shellescape"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// Runner runs the checker synchronously. The checker's own stdout/stderr go
// to Stdout/Stderr unmodified; its output is the detailed conformance report
// and the harness does not interpret it.
type Runner struct {
	Host      string
	Port      int
	ExtraArgs []string
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    Logger
}

// Run blocks until the checker exits. The returned code is the checker's exit
// code: 0 for full conformance, non-zero for failed checks. A non-nil error
// means the checker could not be executed at all.
func (r Runner) Run(ctx context.Context, toolPath string) (int, error) {
	logger := r.Logger
	if logger == nil {
		logger = nullLogger{}
	}

	args := []string{"-h", r.Host, "-p", strconv.Itoa(r.Port)}
	args = append(args, r.ExtraArgs...)

	cmd := exec.CommandContext(ctx, toolPath, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logger.Printf("running checker: %s %s", shellescape.Quote(toolPath), shellescape.QuoteCommand(args))
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		logger.Printf("checker exited with code %d", exitErr.ExitCode())
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("checker did not run: %w", err)
}
