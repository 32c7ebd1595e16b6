package system

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirStore writes artifacts into a flat directory. It satisfies
// capture.Store; names come pre-sanitized from the assembler.
type DirStore struct {
	Dir string
}

// NewDirStore creates the directory if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &DirStore{Dir: dir}, nil
}

func (s *DirStore) Write(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0644)
}

// Path resolves an artifact name to its absolute path.
func (s *DirStore) Path(name string) string {
	abs, err := filepath.Abs(filepath.Join(s.Dir, name))
	if err != nil {
		return filepath.Join(s.Dir, name)
	}
	return abs
}
