package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCatalogPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "repairbase_catalog_test_")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "catalog.json")
}

func TestFileStorage_MissingFileStartsEmpty(t *testing.T) {
	fs, err := NewFileStorage(tempCatalogPath(t))
	require.NoError(t, err)
	assert.Empty(t, fs.Keys())
}

func TestFileStorage_RoundtripAcrossReopen(t *testing.T) {
	path := tempCatalogPath(t)

	fs, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set("user_anna_brands", `{"smartphone":["Apple"]}`))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get("user_anna_brands")
	require.True(t, ok)
	assert.Equal(t, `{"smartphone":["Apple"]}`, v)
}

func TestFileStorage_CorruptFileStartsEmpty(t *testing.T) {
	path := tempCatalogPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0644))

	fs, err := NewFileStorage(path)
	require.NoError(t, err, "a corrupt file must not fail startup")
	assert.Empty(t, fs.Keys())

	// The store is usable and persists over the corrupt file.
	require.NoError(t, fs.Set("k", "v"))
	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestFileStorage_DeleteMissingKeyIsNoop(t *testing.T) {
	fs, err := NewFileStorage(tempCatalogPath(t))
	require.NoError(t, err)
	assert.NoError(t, fs.Delete("nope"))
}

func TestFileStorage_NoTempFileLeftBehind(t *testing.T) {
	path := tempCatalogPath(t)
	fs, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set("k", "v"))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "the atomic write must clean up its temp file")
}

func TestMemStorage_Roundtrip(t *testing.T) {
	m := NewMemStorage()
	require.NoError(t, m.Set("a", "1"))
	require.NoError(t, m.Set("b", "2"))

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, m.Delete("a"))
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"b"}, m.Keys())
}

func TestStore_OverFileStorage(t *testing.T) {
	path := tempCatalogPath(t)
	fs, err := NewFileStorage(path)
	require.NoError(t, err)

	store := New(fs, StaticPrefix("anna"))
	require.NoError(t, store.SaveDeviceType("Smartphone"))
	require.NoError(t, store.SaveBrand("Smartphone", "Apple"))

	// Reopen from disk: everything survives the process boundary.
	reopenedFS, err := NewFileStorage(path)
	require.NoError(t, err)
	reopened := New(reopenedFS, StaticPrefix("anna"))

	assert.Equal(t, []string{"Smartphone"}, reopened.DeviceTypes())
	assert.Equal(t, []string{"Apple"}, reopened.BrandsFor("Smartphone"))
}
