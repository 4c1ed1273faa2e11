package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(nil, func(context.Context) error { return nil })
	require.Error(t, err)

	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")}, nil, WithDelay(time.Second))
	require.NoError(t, err)
	assert.Len(t, w.files, 2)
	assert.Equal(t, []string{dir}, w.dirs)
	assert.Equal(t, time.Second, w.delay)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	runs := make(chan struct{}, 16)
	var count atomic.Int32
	w, err := New([]string{path}, func(context.Context) error {
		count.Add(1)
		runs <- struct{}{}
		return errors.New("errors do not stop the watcher")
	}, WithDelay(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	wait := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a run")
		}
	}
	// Initial run.
	wait()

	// Unrelated files are ignored and a burst of writes runs once.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	for _, v := range []string{"v2", "v3", "v4"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o644))
	}
	wait()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(2), count.Load())

	// An atomic save replaces the file.
	tmp := filepath.Join(dir, ".service.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("v5"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	wait()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
