package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/reindex"
	"github.com/kraklabs/codegraph/pkg/storage"
)

func TestWatcherReindexesOnChange(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(full, []byte("package main\n\nfunc a() {}\n"), 0o644))

	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	r := reindex.New(s, nil, root, 10)
	w := New(root, []string{"go"}, r, nil)
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(full, []byte("package main\n\nfunc a() {}\nfunc b() {}\n"), 0o644))

	deadline := time.After(3 * time.Second)
	for w.Status(true).EventsProcessed == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for watcher to process event")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	<-done

	status := w.Status(true)
	assert.True(t, status.EventsProcessed >= 1)
	assert.Equal(t, []string{"go"}, status.WatchedExts)
}

func TestStatusReportsEnabledFlag(t *testing.T) {
	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	w := New(t.TempDir(), []string{"go"}, reindex.New(s, nil, t.TempDir(), 10), nil)
	status := w.Status(false)
	assert.False(t, status.Enabled)
	assert.False(t, status.Running)
}
