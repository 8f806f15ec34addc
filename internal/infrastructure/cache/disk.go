package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/recipebox/backend/internal/domain"
)

// DefaultDirName is the subdirectory of the user cache area holding image files
const DefaultDirName = "RecipeImageCache"

const tempPrefix = ".tmp-"

// DiskCache stores one file per cache key under a single directory.
// The file name is the key itself; there is no index, a file's presence is the record.
type DiskCache struct {
	fs  afero.Fs
	dir string
}

// NewDiskCache creates a disk cache rooted at dir on fs. The directory is created lazily.
func NewDiskCache(fs afero.Fs, dir string) *DiskCache {
	return &DiskCache{
		fs:  fs,
		dir: filepath.Clean(dir),
	}
}

// DefaultDir returns <user cache dir>/RecipeImageCache
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: locate user cache dir: %v", domain.ErrStorage, err)
	}
	return filepath.Join(base, DefaultDirName), nil
}

// Dir returns the cache directory
func (d *DiskCache) Dir() string {
	return d.dir
}

// EnsureReady creates the cache directory if it does not exist
func (d *DiskCache) EnsureReady() error {
	if err := d.fs.MkdirAll(d.dir, 0o700); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrStorage, d.dir, err)
	}
	return nil
}

// Get returns the bytes stored for key. Missing, unreadable and empty files are all misses.
func (d *DiskCache) Get(key domain.CacheKey) ([]byte, bool) {
	if !IsValidKey(string(key)) {
		return nil, false
	}

	data, err := afero.ReadFile(d.fs, d.path(key))
	if err != nil || len(data) == 0 {
		return nil, false
	}

	return data, true
}

// Put stores data under key, replacing any existing file.
// Data is written to a temporary file in the same directory and renamed into
// place, so readers see either the old file, no file or the complete new file.
func (d *DiskCache) Put(key domain.CacheKey, data []byte) error {
	if !IsValidKey(string(key)) {
		return fmt.Errorf("%w: invalid key %q", domain.ErrStorage, key)
	}
	if err := d.EnsureReady(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(d.fs, d.dir, tempPrefix+string(key)+"-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", domain.ErrStorage, key, err)
	}

	if err := d.fs.Rename(tmpName, d.path(key)); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorage, key, err)
	}

	return nil
}

// Delete removes the file for key. Removing a missing key is not an error.
func (d *DiskCache) Delete(key domain.CacheKey) error {
	if !IsValidKey(string(key)) {
		return nil
	}
	if err := d.fs.Remove(d.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// path generates the full filesystem path for a cache key
func (d *DiskCache) path(key domain.CacheKey) string {
	return filepath.Join(d.dir, string(key))
}
