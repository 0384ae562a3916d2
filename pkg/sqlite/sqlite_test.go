package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")

	c, err := Open(ctx, path, time.Second)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Health(ctx))
	assert.Equal(t, path, c.Path())
}

func TestTxRollback(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, filepath.Join(t.TempDir(), "db.sqlite"), time.Second)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Migrate(ctx, []string{`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`}))

	boom := errors.New("boom")
	err = c.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, c.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "", time.Second)
	assert.Error(t, err)
}
