// Package testutil provides shared test helpers for document roots,
// databases and stored documents.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/index"
	"github.com/starford/blockdoc/internal/serializer"
	"github.com/starford/blockdoc/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "blockdoc-test-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary document root with a storage.Provider.
func TestRoot(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	require.NoError(t, err)
	return root, store
}

// DocumentJSON serializes blocks into stored document bytes with a fixed
// timestamp.
func DocumentJSON(t *testing.T, blocks ...block.Block) []byte {
	t.Helper()
	data, err := serializer.Export(blocks, time.UnixMilli(1700000000000))
	require.NoError(t, err)
	return data
}
