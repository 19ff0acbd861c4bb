package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "nested", "coverage.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	v, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.MigrateUp())

	v, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	for _, table := range []string{"node_scans", "node_readings", "coverage_snapshots"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.MigrateDown())

	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='node_scans'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.MigrateUp())
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO node_scans (node_id, last_seen_ms) VALUES ('n1', 1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM node_scans").Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO node_scans (node_id, last_seen_ms) VALUES ('n1', 1)")
		return err
	}))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM node_scans").Scan(&count))
	assert.Equal(t, 1, count)
}
