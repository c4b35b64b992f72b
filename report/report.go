// Package report triggers post-run report generation (coverage or log
// aggregation) after the server has been torn down. The report tool itself is
// a black box; the harness only guarantees it runs once per harness run.
package report

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/alessio/shellescape"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// Generator runs a configured report command. An empty command is a no-op so
// runs without a report tool configured still satisfy the run-once contract.
type Generator struct {
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  Logger
}

func (g Generator) Generate(ctx context.Context) error {
	logger := g.Logger
	if logger == nil {
		logger = nullLogger{}
	}
	if len(g.Command) == 0 {
		logger.Printf("no report command configured, skipping report generation")
		return nil
	}

	logger.Printf("generating report: %s", shellescape.QuoteCommand(g.Command))
	cmd := exec.CommandContext(ctx, g.Command[0], g.Command[1:]...)
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("report command failed: %w", err)
	}
	return nil
}
