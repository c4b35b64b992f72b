package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"

	"github.com/h2tests/h2-conformance-harness/checker"
	"github.com/h2tests/h2-conformance-harness/harness"
	"github.com/h2tests/h2-conformance-harness/provision"
	"github.com/h2tests/h2-conformance-harness/report"
	"github.com/h2tests/h2-conformance-harness/serverproc"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var params commandParams
	if !params.Read(args) {
		return harness.ExitInfraFailure
	}

	cfg, err := params.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		return harness.ExitInfraFailure
	}

	// In quiet mode the progress log is captured instead of printed, and
	// replayed only if the harness itself failed.
	var captured *harness.CapturingLogger
	var logger harness.Logger
	if params.quiet {
		captured = &harness.CapturingLogger{}
		logger = captured
	} else {
		logger = log.New(os.Stdout, "harness: ", log.LstdFlags)
	}
	logger.Printf("server command: %s", shellescape.QuoteCommand(cfg.Server.Command))

	// An interrupted harness still walks the finalize path, so the server is
	// reaped even when the run itself is cancelled from outside.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	h, err := harness.New(
		provision.NewHTTPProvider(provision.Tool{
			Name: cfg.Checker.Name,
			URL:  cfg.Checker.URL,
			Dir:  cfg.Checker.Dir,
		}, logger),
		serverLauncher{
			spec: serverproc.Spec{
				Command: cfg.Server.Command,
				Env:     cfg.Server.Env,
				LogPath: cfg.Server.LogFile,
			},
			logger: logger,
		},
		serverproc.PortProber{
			Addr:        addr,
			Timeout:     cfg.Server.ReadyTimeout.Value(),
			StartupWait: cfg.Server.StartupWait.Value(),
			Logger:      logger,
		},
		checker.Runner{
			Host:      cfg.Server.Host,
			Port:      cfg.Server.Port,
			ExtraArgs: cfg.Checker.Args,
			Stdout:    os.Stdout,
			Stderr:    os.Stderr,
			Logger:    logger,
		},
		report.Generator{
			Command: cfg.Report.Command,
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
			Logger:  logger,
		},
		cfg.Server.ShutdownGrace.Value(),
		logger,
		os.Stdout,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Harness setup error: %s\n", err)
		return harness.ExitInfraFailure
	}

	result := h.Run(ctx)
	if result.Err != nil && captured != nil {
		captured.Output().Dump(os.Stderr, "harness ")
	}
	printVerdict(result)
	return result.Code
}

// serverLauncher adapts serverproc.Start to the harness's Launcher interface.
type serverLauncher struct {
	spec   serverproc.Spec
	logger harness.Logger
}

func (l serverLauncher) Start(ctx context.Context) (harness.ServerHandle, error) {
	return serverproc.Start(ctx, l.spec, l.logger)
}

func printVerdict(r harness.Result) {
	switch {
	case r.Err != nil:
		color.New(color.FgRed, color.Bold).Printf("HARNESS FAILURE: %s\n", r.Err)
	case r.Code == 0:
		color.New(color.FgGreen, color.Bold).Println("PASS: all conformance checks passed")
	default:
		color.New(color.FgRed, color.Bold).Printf("FAIL: checker exited with code %d\n", r.Code)
	}
}
