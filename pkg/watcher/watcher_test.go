package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "other.json")

	w, err := New(50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	fired := make(chan string, 10)
	if err := w.Watch(path, func(p string) { fired <- p }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("[{}]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-fired:
		want, _ := filepath.Abs(path)
		if got != want {
			t.Errorf("callback path = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback not fired")
	}

	select {
	case got := <-fired:
		t.Errorf("unexpected second callback for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}
