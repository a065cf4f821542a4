package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/config"
)

func TestInitializeAPIMissingSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte("apiPort: 9090\n"), 0644))

	_, err := initializeAPI(path)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
}

func TestInitializeAPI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yml")
	cfg := "apiPort: 9090\ndatabase:\n  type: sqlite\n  path: " + filepath.Join(dir, "vitrine.db") + "\nauth:\n  jwtSecret: test-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	api, err := initializeAPI(path)
	require.NoError(t, err)
	require.NotNil(t, api)
	assert.Equal(t, 9090, api.Config.APIPort)
}
