package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("owner.id", "alice"))
	require.NoError(t, store.Set("retrieval.top_k", 7))
	require.NoError(t, store.Set("verbose", true))

	assert.Equal(t, "alice", store.GetString("owner.id"))
	assert.Equal(t, 7, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("verbose"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_MissingKeysReturnZeroValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.False(t, store.GetBool("nope"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("retrieval.context_budget", 800))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", reopened.GetString("llm.model"))
	assert.Equal(t, 800, reopened.GetInt("retrieval.context_budget"))
}

func TestConfigStore_Delete(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.api_key", "sk-secret"))
	require.NoError(t, store.Delete("embedding.api_key"))

	assert.Empty(t, store.GetString("embedding.api_key"))

	// The deletion is persisted, not just in-memory.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Empty(t, reopened.GetString("embedding.api_key"))
}

func TestConfigStore_FlattensNestedTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
[embedding]
provider = "ollama"
model = "nomic-embed-text"

[retrieval]
top_k = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
