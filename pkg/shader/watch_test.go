package shader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file watching test in short mode")
	}

	dir := t.TempDir()
	vs := filepath.Join(dir, "volume.vert")
	fs := filepath.Join(dir, "volume.frag")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{vs, fs, other} {
		require.NoError(t, os.WriteFile(p, []byte("// v1\n"), 0644))
	}

	w, err := NewWatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), vs, fs)
	require.NoError(t, err)
	defer w.Close()

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(other, []byte("// v2\n"), 0644))
	select {
	case <-w.Changed():
		t.Fatal("unexpected notification for an unwatched file")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(fs, []byte("// v2\n"), 0644))
	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("no notification after writing the fragment shader")
	}

	// editors that save through a rename
	tmp := filepath.Join(dir, "volume.vert.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("// v3\n"), 0644))
	require.NoError(t, os.Rename(tmp, vs))
	assert.Eventually(t, w.Pending, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(nil, filepath.Join(t.TempDir(), "nope", "volume.vert"))
	assert.Error(t, err)
}
