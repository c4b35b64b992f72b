package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigFromFlags(t *testing.T) {
	var params commandParams
	ok := params.Read([]string{"harness",
		"-server", "./target/debug/server --instrumented",
		"-port", "9000",
		"-ready-timeout", "3s",
		"-checker-arg", "--strict",
		"-checker-arg", "--timeout=5",
		"-report", "make coverage-report",
	})
	require.True(t, ok)

	cfg, err := params.resolveConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"./target/debug/server", "--instrumented"}, cfg.Server.Command)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadyTimeout.Value())
	assert.Equal(t, []string{"--strict", "--timeout=5"}, cfg.Checker.Args)
	assert.Equal(t, []string{"make", "coverage-report"}, cfg.Report.Command)

	// Defaults survive where no flag was given.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "h2spec", cfg.Checker.Name)
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  command: ["./server"]
  port: 7000
`), 0o600))

	var params commandParams
	ok := params.Read([]string{"harness", "-config", path, "-port", "9000"})
	require.True(t, ok)

	cfg, err := params.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"./server"}, cfg.Server.Command)
	assert.Equal(t, 9000, cfg.Server.Port, "command line wins over the config file")
}

func TestResolveConfigRequiresServerCommand(t *testing.T) {
	var params commandParams
	require.True(t, params.Read([]string{"harness"}))

	_, err := params.resolveConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server command")
}
