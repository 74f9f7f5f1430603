package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENTREGAS_DB", "ENTREGAS_ADDR", "ENTREGAS_UPLOADS", "ENTREGAS_LOG", "ENTREGAS_SECRET"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, &Config{DBPath: "entregas.sqlite3", Addr: ":8080", UploadDir: "uploads"}, cfg)
}

func TestLoadEnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENTREGAS_ADDR", ":9000")
	t.Setenv("ENTREGAS_DB", "/var/lib/entregas.db")

	cfg, err := Load("", []string{"-a", ":9090", "-uploads", "/srv/adjuntos"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr, "flags override env")
	assert.Equal(t, "/var/lib/entregas.db", cfg.DBPath)
	assert.Equal(t, "/srv/adjuntos", cfg.UploadDir)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even if empty.
	require.NoError(t, os.Unsetenv("ENTREGAS_SECRET"))
	require.NoError(t, os.Unsetenv("ENTREGAS_LOG"))
	t.Cleanup(func() {
		os.Unsetenv("ENTREGAS_SECRET")
		os.Unsetenv("ENTREGAS_LOG")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENTREGAS_SECRET=desde-archivo\nENTREGAS_LOG=entregas.log\n"), 0o600))

	cfg, err := Load(path, nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "desde-archivo", cfg.Secret)
	assert.Equal(t, "entregas.log", cfg.LogPath)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.env"), nil, io.Discard)
	assert.NoError(t, err)
}

func TestLoadRejectsStrayArguments(t *testing.T) {
	clearEnv(t)

	_, err := Load("", []string{"serve"}, io.Discard)
	assert.Error(t, err)

	_, err = Load("", []string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, ErrHelp)
}
