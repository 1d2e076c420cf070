package constants

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentBackend_GetPutList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constants.db")
	backend, err := NewDocumentBackend(path)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, ok, err := backend.Get(ctx, "material_type_allowlist")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, backend.Put("material_type_allowlist", "STEEL,ALUMINUM"))
	require.NoError(t, backend.Put("threshold_date", "2023-04-01"))

	value, ok, err := backend.Get(ctx, "material_type_allowlist")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "STEEL,ALUMINUM", value)

	seq, err := backend.List(ctx, "material_")
	require.NoError(t, err)
	found := map[string]string{}
	for k, v := range seq {
		found[k] = v
	}
	require.Equal(t, map[string]string{"material_type_allowlist": "STEEL,ALUMINUM"}, found)
}

func TestDocumentBackend_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constants.db")

	b1, err := NewDocumentBackend(path)
	require.NoError(t, err)
	require.NoError(t, b1.Put("k", "v"))
	require.NoError(t, b1.Close())

	b2, err := NewDocumentBackend(path)
	require.NoError(t, err)
	defer b2.Close()

	value, ok, err := b2.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)
}
