package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestSetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "text-embedding-3-small"))
	require.NoError(t, store.Set("chunking.size", 1000))
	require.NoError(t, store.Set("retrieval.min_similarity", 0.7))
	require.NoError(t, store.Set("watch.enabled", true))

	assert.Equal(t, "text-embedding-3-small", store.GetString("embedding.model"))
	assert.Equal(t, 1000, store.GetInt("chunking.size"))
	assert.Equal(t, 0.7, store.GetFloat("retrieval.min_similarity"))
	assert.True(t, store.GetBool("watch.enabled"))
}

func TestTypedGetters_WrongTypeOrMissing(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("key", "a string"))

	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
	assert.Empty(t, store.GetString("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.provider", "openai"))

	// A fresh store over the same directory sees the saved value.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reopened.GetString("embedding.provider"))
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[embedding]\nmodel = \"nomic-embed-text\"\nprovider = \"ollama\"\n\n[ingest]\nextensions = [\".md\", \".txt\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, []string{".md", ".txt"}, store.GetStringSlice("ingest.extensions"))
}

func TestLoad_MalformedTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0o600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}
