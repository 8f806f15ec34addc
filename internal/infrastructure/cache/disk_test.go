package cache

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/backend/internal/domain"
)

const testDir = "/cache/RecipeImageCache"

func newTestDiskCache() (*DiskCache, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewDiskCache(fs, testDir), fs
}

func TestDiskCache_EnsureReady(t *testing.T) {
	disk, fs := newTestDiskCache()

	require.NoError(t, disk.EnsureReady())
	exists, err := afero.DirExists(fs, testDir)
	require.NoError(t, err)
	assert.True(t, exists)

	// idempotent
	require.NoError(t, disk.EnsureReady())
}

func TestDiskCache_EnsureReady_Fails(t *testing.T) {
	disk := NewDiskCache(afero.NewReadOnlyFs(afero.NewMemMapFs()), testDir)

	err := disk.EnsureReady()

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestDiskCache_Get_MissingKey(t *testing.T) {
	disk, _ := newTestDiskCache()

	data, ok := disk.Get(DeriveKey("https://example.com/missing.png"))

	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestDiskCache_Get_InvalidKey(t *testing.T) {
	disk, _ := newTestDiskCache()

	_, ok := disk.Get(domain.CacheKey("../../etc/passwd"))

	assert.False(t, ok)
}

func TestDiskCache_Get_EmptyFileIsMiss(t *testing.T) {
	disk, fs := newTestDiskCache()
	key := DeriveKey("empty")
	require.NoError(t, fs.MkdirAll(testDir, 0o700))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, key.String()), nil, 0o600))

	_, ok := disk.Get(key)

	assert.False(t, ok)
}

func TestDiskCache_RoundTrip(t *testing.T) {
	disk, fs := newTestDiskCache()
	key := DeriveKey("https://example.com/photo.jpg")
	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	require.NoError(t, disk.Put(key, data))

	got, ok := disk.Get(key)
	require.True(t, ok)
	assert.Equal(t, data, got)

	// file name is exactly the key, no extension
	exists, err := afero.Exists(fs, filepath.Join(testDir, key.String()))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiskCache_Put_Overwrites(t *testing.T) {
	disk, _ := newTestDiskCache()
	key := DeriveKey("overwrite")

	require.NoError(t, disk.Put(key, []byte("first")))
	require.NoError(t, disk.Put(key, []byte("second")))

	got, ok := disk.Get(key)
	require.True(t, ok)
	assert.Equal(t, "second", string(got))
}

func TestDiskCache_Put_LeavesNoTempFiles(t *testing.T) {
	disk, fs := newTestDiskCache()

	for i := 0; i < 5; i++ {
		require.NoError(t, disk.Put(DeriveKey(fmt.Sprintf("k%d", i)), []byte("v")))
	}

	entries, err := afero.ReadDir(fs, testDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tempPrefix), "leftover temp file %s", e.Name())
		assert.True(t, IsValidKey(e.Name()))
	}
}

func TestDiskCache_Put_Fails(t *testing.T) {
	disk := NewDiskCache(afero.NewReadOnlyFs(afero.NewMemMapFs()), testDir)

	err := disk.Put(DeriveKey("readonly"), []byte("data"))

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestDiskCache_Put_InvalidKey(t *testing.T) {
	disk, _ := newTestDiskCache()

	err := disk.Put(domain.CacheKey("not-a-key"), []byte("data"))

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestDiskCache_Delete(t *testing.T) {
	disk, _ := newTestDiskCache()
	key := DeriveKey("delete")

	require.NoError(t, disk.Put(key, []byte("data")))
	require.NoError(t, disk.Delete(key))

	_, ok := disk.Get(key)
	assert.False(t, ok)

	// deleting again is fine
	assert.NoError(t, disk.Delete(key))
}

func TestDiskCache_ConcurrentWriters(t *testing.T) {
	disk, _ := newTestDiskCache()
	key := DeriveKey("contended")
	payloads := [][]byte{
		bytes.Repeat([]byte("a"), 4096),
		bytes.Repeat([]byte("b"), 4096),
		bytes.Repeat([]byte("c"), 4096),
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, disk.Put(key, payloads[i%len(payloads)]))
		}(i)
		go func() {
			defer wg.Done()
			if got, ok := disk.Get(key); ok {
				assert.Len(t, got, 4096)
				assert.Equal(t, bytes.Repeat(got[:1], 4096), got, "torn read")
			}
		}()
	}
	wg.Wait()

	got, ok := disk.Get(key)
	require.True(t, ok)
	assert.Len(t, got, 4096)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("HOME", "/tmp/home")

	dir, err := DefaultDir()

	require.NoError(t, err)
	assert.Equal(t, DefaultDirName, filepath.Base(dir))
}
