package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for names that escape the storage directory.
var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStorage keeps export files under a single base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates baseDir when missing.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve exports directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save writes data to name, relative to the base directory.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalise export file: %w", err)
	}
	return name, nil
}

// Open returns a read handle and the file size.
func (s *LocalStorage) Open(name string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open export file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat export file: %w", err)
	}
	return file, info.Size(), nil
}

// Delete removes name. Missing files are not an error.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files last modified before now-ttl and returns
// their relative names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("cleanup exports: %w", err)
	}
	return deleted, nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", ErrOutsideRoot
	}
	path := filepath.Join(s.baseDir, filepath.FromSlash(name))
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}
