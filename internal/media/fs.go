package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is a filesystem-backed media store rooted at a directory. Keys map
// to paths under the root; path traversal outside the root is rejected.
type FSStore struct {
	root string
}

// NewFSStore creates a media store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("missing media root directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &FSStore{root: dir}, nil
}

// Exists implements Store.Exists.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Copy implements Store.Copy. An existing destination is left untouched,
// which makes same-argument replays no-ops.
func (s *FSStore) Copy(ctx context.Context, src, dst string) error {
	srcPath, err := s.resolve(src)
	if err != nil {
		return err
	}
	dstPath, err := s.resolve(dst)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dstPath); err == nil {
		return nil
	}

	in, err := os.Open(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}

	// Write to a temp file and rename so a crash mid-copy never leaves a
	// partial destination that a resumed publish would mistake for done.
	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dstPath)
}

func (s *FSStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimLeft(key, "/"))
	if clean == "/" {
		return "", fmt.Errorf("empty media key")
	}
	return filepath.Join(s.root, clean), nil
}
