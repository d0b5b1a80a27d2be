package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultFilePath = "~/.config/wakubase/storage.toml"

// File persists entries as string values of a single TOML document.
// Every Set rewrites the whole document.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile resolves path (empty uses ~/.config/wakubase/storage.toml) and
// returns a backend bound to it. The file is created on first write.
func NewFile(path string) (*File, error) {
	resolved, err := resolvePath(path, defaultFilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	return &File{path: resolved}, nil
}

// Path returns the absolute location of the backing file.
func (f *File) Path() string {
	return f.path
}

// Get reads key from the document. A missing file reads as empty.
func (f *File) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return nil, false, unavailable("read", key, err)
	}
	value, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores value under key, creating parent directories as needed.
func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return unavailable("write", key, err)
	}
	entries[key] = string(value)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return unavailable("write", key, fmt.Errorf("create storage dir: %w", err))
	}
	bytes, err := toml.Marshal(entries)
	if err != nil {
		return unavailable("write", key, fmt.Errorf("marshal entries: %w", err))
	}
	if err := os.WriteFile(f.path, bytes, 0o644); err != nil {
		return unavailable("write", key, err)
	}
	return nil
}

func (f *File) load() (map[string]string, error) {
	entries := make(map[string]string)
	bytes, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(bytes, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return entries, nil
}

func resolvePath(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(fallback)
	}
	return ExpandPath(path)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
