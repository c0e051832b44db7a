package handlers

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateParam(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		got, ok := parseDateParam("2024-01-15")
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, ok := parseDateParam("2024-01-15T10:30:00Z")
		require.True(t, ok)
		assert.Equal(t, 10, got.Hour())
	})

	t.Run("empty and garbage", func(t *testing.T) {
		_, ok := parseDateParam("")
		assert.False(t, ok)
		_, ok = parseDateParam("15.01.2024")
		assert.False(t, ok)
	})
}

func TestResolveShapefile(t *testing.T) {
	dir := t.TempDir()

	t.Run("plain shp", func(t *testing.T) {
		path := filepath.Join(dir, "regions.shp")
		require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))

		got, err := resolveShapefile(path, dir)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("zip with shapefile parts", func(t *testing.T) {
		zipPath := filepath.Join(dir, "regions.zip")
		writeZip(t, zipPath, map[string]string{
			"data/regions.shp": "shp",
			"data/regions.dbf": "dbf",
			"readme.txt":       "skip me",
		})

		got, err := resolveShapefile(zipPath, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "regions.shp"), got)
		assert.FileExists(t, filepath.Join(dir, "regions.dbf"))
		assert.NoFileExists(t, filepath.Join(dir, "readme.txt"))
	})

	t.Run("zip without shp", func(t *testing.T) {
		zipPath := filepath.Join(dir, "empty.zip")
		writeZip(t, zipPath, map[string]string{"readme.txt": "nope"})

		_, err := resolveShapefile(zipPath, dir)
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := resolveShapefile(filepath.Join(dir, "regions.geojson"), dir)
		assert.Error(t, err)
	})
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	w := zip.NewWriter(out)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}
