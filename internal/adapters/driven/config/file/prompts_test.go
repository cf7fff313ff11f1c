package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

func TestPromptStore_LoadDefault(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Contains(t, prompt, "%s")
	assert.Contains(t, prompt, "[1]")
}

func TestPromptStore_LazyInitCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// No I/O before the first Load.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, driven.PromptAnswer+".txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_CustomFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer from:\n%s\nQuestion: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_ReloadPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	edited := "Edited:\n%s\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(edited), 0600))

	store.Reload()
	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, edited, prompt)
}
