package chunk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNamer_Next(t *testing.T) {
	dir := t.TempDir()
	n := NewNamer(dir)

	id, path := n.Next()
	if id == "" {
		t.Fatal("expected non-empty id")
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected chunk in %s, got %s", dir, path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, Prefix) || !strings.HasSuffix(base, Extension) {
		t.Errorf("unexpected chunk name %s", base)
	}
	if !strings.Contains(base, id) {
		t.Errorf("expected name %s to contain id %s", base, id)
	}
}

func TestNamer_DefaultsToTempDir(t *testing.T) {
	n := NewNamer("")
	if n.Dir() != os.TempDir() {
		t.Errorf("expected %s, got %s", os.TempDir(), n.Dir())
	}
}

func TestNamer_ThreadSafety(t *testing.T) {
	n := NewNamer(t.TempDir())
	numGoroutines := 50
	perGoroutine := 10

	var wg sync.WaitGroup
	results := make(chan string, numGoroutines*perGoroutine)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, p := n.Next()
				results <- p
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for p := range results {
		if seen[p] {
			t.Errorf("duplicate chunk path generated: %s", p)
		}
		seen[p] = true
	}
	if len(seen) != numGoroutines*perGoroutine {
		t.Errorf("expected %d unique paths, got %d", numGoroutines*perGoroutine, len(seen))
	}
}

func TestIsChunkFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"tone_chunk_abc.wav", true},
		{"/tmp/tone_chunk_abc.wav", true},
		{"tone_chunk_abc.m4a", false},
		{"other_abc.wav", false},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsChunkFile(tt.name); got != tt.expected {
				t.Errorf("IsChunkFile(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestCleanupOrphans(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tone_chunk_a.wav", "tone_chunk_b.wav", "keep.wav", "tone_chunk_c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "tone_chunk_dir.wav"), 0o700); err != nil {
		t.Fatal(err)
	}

	n, err := CleanupOrphans(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files removed, got %d", n)
	}

	for _, name := range []string{"keep.wav", "tone_chunk_c.txt", "tone_chunk_dir.wav"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to survive cleanup: %v", name, err)
		}
	}
}

func TestCleanupOrphans_MissingDir(t *testing.T) {
	n, err := CleanupOrphans(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Errorf("expected no error for missing dir, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 removed, got %d", n)
	}
}

func writeChunk(t *testing.T, tr *Tracker, n *Namer) string {
	t.Helper()
	id, path := n.Next()
	tr.Track(id, path)
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTracker_ReleaseDeletesOnce(t *testing.T) {
	tr := NewTracker()
	n := NewNamer(t.TempDir())
	path := writeChunk(t, tr, n)

	if tr.Get(path) == nil {
		t.Fatal("expected tracked chunk")
	}
	if err := tr.Release(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file to be deleted, stat err=%v", err)
	}
	if tr.Get(path) != nil {
		t.Error("expected released chunk to be forgotten")
	}

	// Second release is a no-op
	if err := tr.Release(path); err != nil {
		t.Errorf("second release: unexpected error: %v", err)
	}
	created, released := tr.Counts()
	if created != 1 || released != 1 {
		t.Errorf("expected 1 created / 1 released, got %d / %d", created, released)
	}
}

func TestTracker_Release_UnknownAndEmptyPath(t *testing.T) {
	tr := NewTracker()

	if err := tr.Release(""); err != nil {
		t.Errorf("empty path: unexpected error: %v", err)
	}
	if err := tr.Release("/nowhere/tone_chunk_x.wav"); err != nil {
		t.Errorf("unknown path: unexpected error: %v", err)
	}
	if _, released := tr.Counts(); released != 0 {
		t.Errorf("expected no releases, got %d", released)
	}
}

func TestTracker_Release_MissingFileCountsAsDeleted(t *testing.T) {
	tr := NewTracker()
	id, path := NewNamer(t.TempDir()).Next()
	tr.Track(id, path)

	if err := tr.Release(path); err != nil {
		t.Errorf("expected missing file to be tolerated, got %v", err)
	}
}

func TestTracker_Release_RemoveErrorIsReturned(t *testing.T) {
	tr := NewTracker()
	boom := errors.New("permission denied")
	tr.remove = func(string) error { return boom }
	tr.Track("c-1", "/tmp/tone_chunk_c-1.wav")

	if err := tr.Release("/tmp/tone_chunk_c-1.wav"); !errors.Is(err, boom) {
		t.Errorf("expected remove error, got %v", err)
	}
	// Not retried
	if err := tr.Release("/tmp/tone_chunk_c-1.wav"); err != nil {
		t.Errorf("expected no retry, got %v", err)
	}
}

func TestTracker_ReleaseAll(t *testing.T) {
	tr := NewTracker()
	n := NewNamer(t.TempDir())
	paths := []string{writeChunk(t, tr, n), writeChunk(t, tr, n), writeChunk(t, tr, n)}

	if err := tr.Release(paths[0]); err != nil {
		t.Fatal(err)
	}
	if got := tr.ReleaseAll(); got != 2 {
		t.Errorf("expected 2 released, got %d", got)
	}
	if tr.Live() != 0 {
		t.Errorf("expected no live chunks, got %d", tr.Live())
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s deleted", p)
		}
	}
	created, released := tr.Counts()
	if created != released {
		t.Errorf("expected deletions to equal creations, got %d / %d", created, released)
	}
}
