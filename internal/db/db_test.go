package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "entregas.sqlite3"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, EnsureSchema(database))
	require.NoError(t, EnsureSchema(database))

	var n int
	err = database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'deliveries', 'settings', 'revoked_tokens')`,
	).Scan(&n)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestReturnedRequiresTimestamp(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO deliveries (created_at, equipment_name, equipment_type, recipient_name, returned)
		 VALUES ('2024-05-01 10:00', 'Laptop', 'Portátil', 'Ana', 1)`,
	)
	require.Error(t, err, "returned rows without returned_at must be rejected")
}
