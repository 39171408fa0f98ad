package vault

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_CoalescesChanges(t *testing.T) {
	root := t.TempDir()
	src, err := NewSource(root)
	require.NoError(t, err)

	changes := make(chan []string, 4)
	w, err := NewWatcher(src, 300*time.Millisecond, func(_ context.Context, paths []string) {
		changes <- paths
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	a := writeNote(t, src.Root, "a.md", "one")
	writeNote(t, src.Root, "a.md", "two")
	b := writeNote(t, src.Root, "b.md", "three")
	writeNote(t, src.Root, "ignored.txt", "nope")

	select {
	case paths := <-changes:
		assert.Equal(t, []string{a, b}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	src, err := NewSource(root)
	require.NoError(t, err)

	changes := make(chan []string, 4)
	w, err := NewWatcher(src, 50*time.Millisecond, func(_ context.Context, paths []string) {
		changes <- paths
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeNote(t, src.Root, "sub/.keep", "")
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	note := writeNote(t, src.Root, "sub/c.md", "content")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case paths := <-changes:
			for _, p := range paths {
				if p == note {
					return
				}
			}
		case <-deadline:
			t.Fatalf("change to %s not reported", filepath.Base(note))
		}
	}
}
