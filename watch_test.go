package autoload

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchLogsProfileChanges(t *testing.T) {
	dir := t.TempDir()
	buf := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))

	w, err := Watch(context.Background(), dir, log)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survival_cities.json"), []byte(`{}`), 0o644))

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "file=survival_cities.json")
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotContains(t, buf.String(), "notes.txt")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log, _ := newTestLogger()

	w, err := Watch(ctx, t.TempDir(), log)
	require.NoError(t, err)

	cancel()
	require.NoError(t, w.Close())
}

func TestWatchMissingDirectory(t *testing.T) {
	log, _ := newTestLogger()
	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), log)
	assert.Error(t, err)
}
