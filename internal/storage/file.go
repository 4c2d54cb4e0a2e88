package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// fileStore keeps one file per key under a directory. Writes go
// through a temp file and rename so a crash never leaves a key
// half-written.
type fileStore struct {
	dir string
}

func openFile(cfg Config) (KV, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, fmt.Errorf("storage: path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{dir: dir}, nil
}

// keyPath maps a key to a filename. Keys are hex-encoded so arbitrary
// key strings can never escape the directory.
func (f *fileStore) keyPath(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+".json")
}

func (f *fileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.keyPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *fileStore) Set(key string, value []byte) error {
	path := f.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *fileStore) Remove(key string) error {
	err := os.Remove(f.keyPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *fileStore) Close() error {
	return nil
}
