package pipeline

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-mix-pipeline/internal/store"
)

func TestSetStatus_LogsRegistryFailure(t *testing.T) {
	// Opening the database under a directory that does not exist leaves the
	// handle unusable, so every registry write fails.
	err := store.InitDB(filepath.Join(t.TempDir(), "missing", "pipeline.db"))
	require.Error(t, err)
	t.Cleanup(func() { store.CloseDB() })

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	setStatus(log, "run-1", "running")

	assert.Contains(t, buf.String(), "update run status")
	assert.Contains(t, buf.String(), "run-1")
}
