package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"go.uber.org/multierr"
)

// ServerHandle is the harness's ownership record for the server-under-test.
// Stop must reap the process and everything it spawned; DumpLog replays the
// captured server output.
type ServerHandle interface {
	PID() int
	Stop(grace time.Duration) error
	DumpLog(w io.Writer) error
}

// Provisioner makes sure the conformance-checker binary exists locally and
// returns its path. Implementations are expected to be idempotent.
type Provisioner interface {
	Ensure(ctx context.Context) (string, error)
}

// Launcher starts the server-under-test without waiting for it to exit.
type Launcher interface {
	Start(ctx context.Context) (ServerHandle, error)
}

// Prober reports nil once the server is accepting connections, or an error
// if it did not become ready within the prober's deadline.
type Prober interface {
	WaitReady(ctx context.Context) error
}

// Checker runs the conformance tool against the server and returns its exit
// code. A non-nil error means the tool could not be executed at all, which is
// an infrastructure failure rather than a conformance verdict.
type Checker interface {
	Run(ctx context.Context, toolPath string) (int, error)
}

// Reporter generates the post-run report from accumulated instrumentation
// data. It is invoked exactly once per run, after teardown.
type Reporter interface {
	Generate(ctx context.Context) error
}

// Harness sequences one conformance run: provision the checker, start the
// server, wait for readiness, run the checker, then reap and report. The
// finalize path runs no matter where the run failed, so a started server is
// never leaked.
type Harness struct {
	provisioner   Provisioner
	launcher      Launcher
	prober        Prober
	checker       Checker
	reporter      Reporter
	shutdownGrace time.Duration
	logger        Logger
	output        io.Writer
}

func New(
	provisioner Provisioner,
	launcher Launcher,
	prober Prober,
	checker Checker,
	reporter Reporter,
	shutdownGrace time.Duration,
	logger Logger,
	output io.Writer,
) (*Harness, error) {
	if provisioner == nil {
		return nil, errors.New("harness requires a provisioner")
	}
	if launcher == nil {
		return nil, errors.New("harness requires a launcher")
	}
	if prober == nil {
		return nil, errors.New("harness requires a readiness prober")
	}
	if checker == nil {
		return nil, errors.New("harness requires a checker")
	}
	if logger == nil {
		logger = NullLogger()
	}
	if output == nil {
		output = io.Discard
	}
	return &Harness{
		provisioner:   provisioner,
		launcher:      launcher,
		prober:        prober,
		checker:       checker,
		reporter:      reporter,
		shutdownGrace: shutdownGrace,
		logger:        logger,
		output:        output,
	}, nil
}

// Run executes the full sequence and returns the terminal result. The
// returned code is ExitInfraFailure for anything that prevented a conformance
// verdict, otherwise the checker's own exit code.
func (h *Harness) Run(ctx context.Context) Result {
	h.logger.Printf("stage: %s", StageInit)

	toolPath, err := h.provisioner.Ensure(ctx)
	if err != nil {
		return h.finalize(ctx, nil, Result{
			Stage: StageInit,
			Code:  ExitInfraFailure,
			Err:   fmt.Errorf("provisioning checker: %w", err),
		})
	}
	h.logger.Printf("stage: %s (checker at %s)", StageProvisioned, toolPath)

	h.logger.Printf("stage: %s", StageServerStarting)
	server, err := h.launcher.Start(ctx)
	if err != nil {
		return h.finalize(ctx, nil, Result{
			Stage: StageServerStarting,
			Code:  ExitInfraFailure,
			Err:   fmt.Errorf("starting server: %w", err),
		})
	}
	h.logger.Printf("server started (pid %d)", server.PID())

	if err := h.prober.WaitReady(ctx); err != nil {
		return h.finalize(ctx, server, Result{
			Stage: StageServerStarting,
			Code:  ExitInfraFailure,
			Err:   fmt.Errorf("waiting for server readiness: %w", err),
		})
	}
	h.logger.Printf("stage: %s", StageServerReady)

	h.logger.Printf("stage: %s", StageChecking)
	code, err := h.checker.Run(ctx, toolPath)
	if err != nil {
		return h.finalize(ctx, server, Result{
			Stage: StageChecking,
			Code:  ExitInfraFailure,
			Err:   fmt.Errorf("running checker: %w", err),
		})
	}
	return h.finalize(ctx, server, Result{Stage: StageChecking, Code: code})
}

// finalize is the compensating tail of every run path: reap the server if one
// was started, surface its log on failure, then attempt report generation
// exactly once. Teardown problems are logged and folded into the result only
// when there is no more interesting error already.
func (h *Harness) finalize(ctx context.Context, server ServerHandle, r Result) Result {
	h.logger.Printf("stage: %s", StageReaping)

	var teardownErr error
	if server != nil {
		if r.Code != 0 {
			h.dumpServerLog(server)
		}
		if err := server.Stop(h.shutdownGrace); err != nil {
			h.logger.Printf("stopping server (pid %d): %s", server.PID(), err)
			teardownErr = multierr.Append(teardownErr, err)
		}
	}

	if h.reporter != nil {
		// The report runs even when the harness itself was interrupted, so
		// detach it from the run's cancellation.
		if err := h.reporter.Generate(context.WithoutCancel(ctx)); err != nil {
			h.logger.Printf("report generation failed: %s", err)
		}
	}
	h.logger.Printf("stage: %s", StageReported)

	if r.Err == nil && teardownErr != nil {
		// Best effort only. The verdict stands; the leak is called out.
		h.logger.Printf("teardown was not clean: %s", teardownErr)
	}
	r.Stage = StageDone
	h.logger.Printf("stage: %s (code %d)", StageDone, r.Code)
	return r
}

func (h *Harness) dumpServerLog(server ServerHandle) {
	banner := color.New(color.FgYellow, color.Bold)
	banner.Fprintln(h.output, "--- captured server log ---")
	if err := server.DumpLog(h.output); err != nil {
		h.logger.Printf("could not read captured server log: %s", err)
	}
	banner.Fprintln(h.output, "--- end server log ---")
}
