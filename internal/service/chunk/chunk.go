// Package chunk provides chunk file naming, lifecycle and cleanup.
package chunk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// Prefix is shared by every chunk file so leftovers can be found in bulk.
	Prefix = "tone_chunk_"
	// Extension of recorded chunk files.
	Extension = ".wav"
)

// Namer generates unique chunk file paths inside a directory.
type Namer struct {
	dir string
}

// NewNamer returns a Namer rooted at dir. An empty dir means os.TempDir().
func NewNamer(dir string) *Namer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Namer{dir: dir}
}

// Dir returns the directory chunks are written to.
func (n *Namer) Dir() string {
	return n.dir
}

// Next returns a fresh chunk id and its absolute path.
func (n *Namer) Next() (id, path string) {
	id = uuid.NewString()
	return id, filepath.Join(n.dir, fmt.Sprintf("%s%s%s", Prefix, id, Extension))
}

// IsChunkFile reports whether name (a base name or path) looks like a chunk file.
func IsChunkFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, Prefix) && strings.HasSuffix(base, Extension)
}

// CleanupOrphans removes every chunk file left in dir, e.g. by a crashed
// process. It returns the number of files removed and the joined errors of
// any removals that failed.
func CleanupOrphans(dir string) (int, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read chunk dir: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsChunkFile(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
