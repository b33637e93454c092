package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"upscaled/internal/common/fsutil"
)

// FSStore keeps one file per entry, named by its key.
type FSStore struct {
	dir string
}

// NewFSStore opens (and creates) dir and removes temp files left by an
// interrupted write.
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := fsutil.AbsDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		if fsutil.IsTempName(e.Name()) {
			_ = os.Remove(filepath.Join(abs, e.Name()))
		}
	}
	return &FSStore{dir: abs}, nil
}

// Dir returns the absolute cache directory.
func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	b, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	_, err := fsutil.WriteFileAtomic(s.dir, key, data)
	return err
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FSStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	type keyTime struct {
		key string
		mod time.Time
	}
	kts := make([]keyTime, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !validKey(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		kts = append(kts, keyTime{key: e.Name(), mod: fi.ModTime()})
	}
	sort.SliceStable(kts, func(i, j int) bool { return kts[i].mod.Before(kts[j].mod) })
	out := make([]string, len(kts))
	for i, kt := range kts {
		out[i] = kt.key
	}
	return out, nil
}

func (s *FSStore) Close() error { return nil }
