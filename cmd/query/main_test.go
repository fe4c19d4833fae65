package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/meghashyamc/pagesearch/services/search"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("STORAGE_PATH", tempDir)
	t.Setenv("KVDB_PATH", filepath.Join(tempDir, "records.db"))
	t.Setenv("LOG_LEVEL", "error")
	return tempDir
}

func TestIndexThenSearch(t *testing.T) {
	assert := require.New(t)
	tempDir := setupTestEnv(t)

	documentsPath := filepath.Join(tempDir, "docs.json")
	assert.NoError(os.WriteFile(documentsPath, []byte(`{"documents":[
		{"id":"tomato-soup","type":"recipe","title":"Tomato soup"},
		{"id":"garlic-bread","type":"recipe","title":"Garlic bread"}
	]}`), 0644))

	var out bytes.Buffer
	assert.NoError(runIndex(context.Background(), &out, documentsPath))
	assert.Equal("indexed 2 documents\n", out.String())

	out.Reset()
	assert.NoError(runSearch(context.Background(), &out, search.ListRequest{Query: "garlic", Page: "1"}))

	var envelope map[string]any
	assert.NoError(json.Unmarshal(out.Bytes(), &envelope))
	assert.Equal("garlic", envelope["query"])
	assert.Len(envelope["objects"], 1)
}

func TestSearchPageOutOfRange(t *testing.T) {
	assert := require.New(t)
	setupTestEnv(t)

	var out bytes.Buffer
	err := runSearch(context.Background(), &out, search.ListRequest{Query: "garlic", Page: "2"})
	assert.Error(err)
	assert.Empty(out.String())
}

func TestIndexMissingFile(t *testing.T) {
	assert := require.New(t)
	tempDir := setupTestEnv(t)

	var out bytes.Buffer
	assert.Error(runIndex(context.Background(), &out, filepath.Join(tempDir, "missing.json")))
}
