package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/weights
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// AbsDir expands '~', makes path absolute and creates the directory if needed.
func AbsDir(path string) (string, error) {
	p, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	return abs, nil
}

// WriteFileAtomic publishes data at dir/name by writing a temp file in the
// same directory and renaming it into place. Readers see either nothing or
// the complete payload. An existing target is left untouched and published
// is false.
func WriteFileAtomic(dir, name string, data []byte) (published bool, err error) {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	}
	tmp := filepath.Join(dir, ".tmp-"+name+"-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("write temp: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("sync temp: %w", err)
	}
	if err = f.Close(); err != nil {
		return false, fmt.Errorf("close temp: %w", err)
	}
	// A concurrent writer may have published the same key meanwhile; its
	// content is identical, so keep the first one.
	if _, statErr := os.Stat(target); statErr == nil {
		_ = os.Remove(tmp)
		return false, nil
	}
	if err = os.Rename(tmp, target); err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	return true, nil
}

// IsTempName reports whether name is an in-progress WriteFileAtomic temp file.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".tmp-")
}
