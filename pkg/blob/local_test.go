package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalProvider_ListOpenHead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "orders"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders", "part-1.csv"), []byte("id,amount\n1,2\n"), 0o644))

	p := NewLocalProvider(dir)
	ctx := context.Background()

	descs, err := p.List(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, "orders/part-1.csv", descs[0].Key)

	info, err := p.Head(ctx, descs[0])
	require.NoError(t, err)
	require.Equal(t, int64(14), info.Size)

	rc, err := p.Open(ctx, descs[0])
	require.NoError(t, err)
	defer rc.Close()
}

func TestLocalProvider_OpenMissingIsNotFound(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider(dir)
	_, err := p.Open(context.Background(), Descriptor{Key: "missing.csv"})
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, KindNotFound, be.Kind)
	require.True(t, be.Permanent())
}
