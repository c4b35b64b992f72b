package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRunsConfiguredCommand(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "report.txt")
	g := Generator{Command: []string{"/bin/sh", "-c", "echo done > " + marker}}

	require.NoError(t, g.Generate(context.Background()))

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))
}

func TestGenerateWithoutCommandIsNoOp(t *testing.T) {
	g := Generator{}
	assert.NoError(t, g.Generate(context.Background()))
}

func TestGenerateSurfacesCommandFailure(t *testing.T) {
	g := Generator{Command: []string{"/bin/sh", "-c", "exit 1"}}
	err := g.Generate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "report command failed")
}
