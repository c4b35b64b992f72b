package checker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCheckerStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h2spec")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestRunReturnsZeroOnFullConformance(t *testing.T) {
	stub := writeCheckerStub(t, "exit 0")

	r := Runner{Host: "127.0.0.1", Port: 8080}
	code, err := r.Run(context.Background(), stub)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunPropagatesFailureCode(t *testing.T) {
	stub := writeCheckerStub(t, "exit 2")

	r := Runner{Host: "127.0.0.1", Port: 8080}
	code, err := r.Run(context.Background(), stub)

	require.NoError(t, err, "a failing checker is a verdict, not an error")
	assert.Equal(t, 2, code)
}

func TestRunPassesTargetAndExtraArgs(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	stub := writeCheckerStub(t, `echo "$@" > `+argsFile)

	r := Runner{Host: "127.0.0.1", Port: 9443, ExtraArgs: []string{"--strict"}}
	code, err := r.Run(context.Background(), stub)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "-h 127.0.0.1 -p 9443 --strict\n", string(data))
}

func TestRunForwardsCheckerOutput(t *testing.T) {
	stub := writeCheckerStub(t, `echo "146 tests, 146 passed"`)

	var out bytes.Buffer
	r := Runner{Host: "127.0.0.1", Port: 8080, Stdout: &out}
	_, err := r.Run(context.Background(), stub)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "146 tests, 146 passed")
}

func TestRunReportsUnexecutableChecker(t *testing.T) {
	r := Runner{Host: "127.0.0.1", Port: 8080}
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "checker did not run")
}
