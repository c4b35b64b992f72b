package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/h2tests/h2-conformance-harness/harness"
)

// stringList collects repeatable flag values.
type stringList struct {
	values []string
}

func (s *stringList) String() string {
	return strings.Join(s.values, " ")
}

// Set is called by the command line parser
func (s *stringList) Set(value string) error {
	s.values = append(s.values, value)
	return nil
}

type commandParams struct {
	configPath    string
	serverCommand string
	host          string
	port          int
	logFile       string
	checkerURL    string
	checkerDir    string
	checkerArgs   stringList
	reportCommand string
	readyTimeout  time.Duration
	startupWait   time.Duration
	shutdownGrace time.Duration
	quiet         bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&c.serverCommand, "server", "", "launch command for the server-under-test")
	fs.StringVar(&c.host, "host", "", "host the server listens on")
	fs.IntVar(&c.port, "port", 0, "port the server listens on")
	fs.StringVar(&c.logFile, "log-file", "", "file that captures the server's combined output")
	fs.StringVar(&c.checkerURL, "checker-url", "", "release archive URL for the conformance checker")
	fs.StringVar(&c.checkerDir, "checker-dir", "", "directory the checker binary is cached in")
	fs.Var(&c.checkerArgs, "checker-arg", "extra argument(s) passed to the checker")
	fs.StringVar(&c.reportCommand, "report", "", "command run once after teardown to generate the report")
	fs.DurationVar(&c.readyTimeout, "ready-timeout", 0, "how long to wait for the server to accept connections")
	fs.DurationVar(&c.startupWait, "startup-wait", 0, "fixed delay before readiness probing starts")
	fs.DurationVar(&c.shutdownGrace, "shutdown-grace", 0, "how long to wait after interrupting the server before killing it")
	fs.BoolVar(&c.quiet, "quiet", false, "suppress harness progress logging")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

// resolveConfig layers the command line over the config file over the
// defaults. Flags left at their zero values do not override the file.
func (c *commandParams) resolveConfig() (harness.Config, error) {
	cfg := harness.DefaultConfig()
	if c.configPath != "" {
		loaded, err := harness.LoadConfig(c.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.serverCommand != "" {
		cfg.Server.Command = strings.Fields(c.serverCommand)
	}
	if c.host != "" {
		cfg.Server.Host = c.host
	}
	if c.port != 0 {
		cfg.Server.Port = c.port
	}
	if c.logFile != "" {
		cfg.Server.LogFile = c.logFile
	}
	if c.readyTimeout != 0 {
		cfg.Server.ReadyTimeout = harness.Duration(c.readyTimeout)
	}
	if c.startupWait != 0 {
		cfg.Server.StartupWait = harness.Duration(c.startupWait)
	}
	if c.shutdownGrace != 0 {
		cfg.Server.ShutdownGrace = harness.Duration(c.shutdownGrace)
	}
	if c.checkerURL != "" {
		cfg.Checker.URL = c.checkerURL
	}
	if c.checkerDir != "" {
		cfg.Checker.Dir = c.checkerDir
	}
	if len(c.checkerArgs.values) > 0 {
		cfg.Checker.Args = append(cfg.Checker.Args, c.checkerArgs.values...)
	}
	if c.reportCommand != "" {
		cfg.Report.Command = strings.Fields(c.reportCommand)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
