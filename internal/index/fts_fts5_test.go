//go:build sqlite_fts5

package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count))
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{Path: "fts.json", Title: "FTS Doc", Checksum: "f1", UpdatedAt: time.Now()}
	require.NoError(t, db.UpsertDocument(row, "Blocks provide powerful full-text search capabilities."))

	results, err := db.Search("powerful", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fts.json", results[0].Path)
	assert.Contains(t, results[0].Snippet, "<b>powerful</b>")
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "gone.json", Checksum: "g"}, "vanishing content")
	_ = db.DeleteDocument("gone.json")

	results, err := db.Search("vanishing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "evo.json", Title: "Old", Checksum: "1"}, "original text")
	_ = db.UpsertDocument(DocumentRow{Path: "evo.json", Title: "New", Checksum: "2"}, "replacement text")

	results, _ := db.Search("original", 10)
	assert.Empty(t, results)

	results, _ = db.Search("replacement", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "New", results[0].Title)
}
