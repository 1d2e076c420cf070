package blob

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownloader_DownloadPlainFile(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "orders.csv"), []byte("id,amount\n1,2\n"), 0o644))

	provider := NewLocalProvider(srcDir)
	dl := NewDownloader(provider, 3)

	destDir := t.TempDir()
	path, err := dl.Download(context.Background(), "acme", Descriptor{Key: "orders.csv", Size: 14}, destDir)
	require.NoError(t, err)
	require.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,amount\n1,2\n", string(data))

	_, statErr := os.Stat(path + ".part")
	require.True(t, os.IsNotExist(statErr))
}

func TestDownloader_DecompressesGzip(t *testing.T) {
	srcDir := t.TempDir()
	f, err := os.Create(filepath.Join(srcDir, "orders.csv.gz"))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("id,amount\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	provider := NewLocalProvider(srcDir)
	dl := NewDownloader(provider, 3)

	destDir := t.TempDir()
	path, err := dl.Download(context.Background(), "acme", Descriptor{Key: "orders.csv.gz"}, destDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(destDir, "orders.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,amount\n1,2\n", string(data))
}

func TestDownloader_PermanentErrorDoesNotRetry(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	dl := NewDownloader(provider, 5)

	_, err := dl.Download(context.Background(), "acme", Descriptor{Key: "missing.csv"}, t.TempDir())
	require.Error(t, err)
}
