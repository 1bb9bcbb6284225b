package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirectoryLoader_ListPerOwnerDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice", "2025-01-16.json"), `{"date":"2025-01-16"}`)
	writeFile(t, filepath.Join(root, "alice", "2025-01-15.json"), `{"date":"2025-01-15"}`)
	writeFile(t, filepath.Join(root, "alice", ".hidden.json"), `{}`)
	writeFile(t, filepath.Join(root, "alice", "notes.txt"), `x`)
	writeFile(t, filepath.Join(root, "bob", "2025-01-15.json"), `{}`)

	loader := NewDirectoryLoader(root)
	refs, err := loader.List(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, refs, 2)
	assert.Equal(t, "2025-01-15", refs[0].ID)
	assert.Equal(t, "2025-01-16", refs[1].ID)
	assert.Equal(t, "alice", refs[0].OwnerID)

	raw, err := loader.Load(context.Background(), refs[0])
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2025-01-15"}`, string(raw.Body))
	assert.Equal(t, "alice", raw.OwnerID)
}

func TestDirectoryLoader_ListFallsBackToRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2025-01-15.json"), `{}`)

	refs, err := NewDirectoryLoader(root).List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "alice", refs[0].OwnerID)
}

func TestDirectoryLoader_Errors(t *testing.T) {
	loader := NewDirectoryLoader(filepath.Join(t.TempDir(), "missing"))

	_, err := loader.List(context.Background(), "alice")
	assert.Error(t, err)

	_, err = loader.Load(context.Background(), RefFromPath("alice", filepath.Join(t.TempDir(), "nope.json")))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, RefFromPath("alice", "x.json"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefFromPath(t *testing.T) {
	ref := RefFromPath("alice", "/data/alice/2025-01-15.json")
	assert.Equal(t, "2025-01-15", ref.ID)
	assert.Equal(t, "alice", ref.OwnerID)
	assert.Equal(t, "/data/alice/2025-01-15.json", ref.Path)
}
