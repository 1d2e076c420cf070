package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakeforge/etl/pkg/tenant"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func setupRegistry(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "tenant_registry.yaml"), `
tenants:
  - slug: acme
    uuid: 11112222-3333-4444-5555-666677778888
    display_name: Acme Corp
    schedule_priority: 1
  - slug: globex
    uuid: aaaa0000-bbbb-1111-cccc-222233334444
    disabled: true
    schedule_priority: 2
`)
}

func setupTenantLayers(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "shared", "defaults.yaml"), `
blob:
  max_attempts: 3
`)
	writeFile(t, filepath.Join(root, "starrocks", "connection_pool.yaml"), `
starrocks:
  connection_pool:
    max_open: 20
`)
	writeFile(t, filepath.Join(root, "tenants", "acme", "config.yaml"), `
storage:
  provider: s3
  bucket: acme-landing-{tenant_slug}
starrocks:
  host: sr.internal
  database: acme
tables:
  orders:
    kind: fact
    source_format: csv
    source_path: orders/
    mapping:
      rename:
        order_id: id
      types:
        id: int64
      cleaning:
        id:
          - name: trim
          - name: uppercase
    computed_columns:
      - target: total_with_tax
        kind: arithmetic
        expression: subtotal + tax_amount
`)
	writeFile(t, filepath.Join(root, "tenants", "acme", ".env"), "DB_PASSWORD=supersecret\n")
}

func TestListTenants_SkipsDisabled(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)

	r := NewResolver(root)
	entries, err := r.ListTenants(false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "acme", entries[0].Slug)
}

func TestListTenants_IncludeDisabled(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)

	r := NewResolver(root)
	entries, err := r.ListTenants(true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestGet_MergesLayersAndAppliesTemplating(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)
	setupTenantLayers(t, root)

	r := NewResolver(root)
	ctx, err := r.Get("acme")
	require.NoError(t, err)
	require.True(t, ctx.Frozen())
	require.Equal(t, "acme", ctx.Slug)
	require.Equal(t, "acme-landing-acme", ctx.StorageConfig["bucket"])
	require.Equal(t, 3, ctx.Blob.MaxAttempts)
	require.Equal(t, 20, ctx.StarRocks.ConnMaxOpen)
	require.Equal(t, "sr.internal", ctx.StarRocks.Host)
	require.Equal(t, "supersecret", ctx.Env["DB_PASSWORD"])

	table, ok := ctx.Tables["orders"]
	require.True(t, ok)
	require.Len(t, table.Computed, 1)
	require.Equal(t, "total_with_tax", table.Computed[0].Target)
	require.Equal(t, []tenant.CleaningStep{{Name: "trim"}, {Name: "uppercase"}}, table.Mapping.Cleaning["id"])
}

func TestGet_CachesEnvAcrossCalls(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)
	setupTenantLayers(t, root)

	r := NewResolver(root)
	first, err := r.Get("acme")
	require.NoError(t, err)
	require.Equal(t, "supersecret", first.Env["DB_PASSWORD"])

	envPath := filepath.Join(root, "tenants", "acme", ".env")
	require.NoError(t, os.Remove(envPath))

	second, err := r.Get("acme")
	require.NoError(t, err)
	require.Equal(t, "supersecret", second.Env["DB_PASSWORD"])
}

func TestGet_UnknownTenant(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)

	r := NewResolver(root)
	_, err := r.Get("does-not-exist")
	require.Error(t, err)
	require.True(t, Is(err, KindUnknownTenant))
}

func TestGet_RejectsSecretInYAML(t *testing.T) {
	root := t.TempDir()
	setupRegistry(t, root)
	writeFile(t, filepath.Join(root, "tenants", "acme", "config.yaml"), `
storage:
  provider: s3
  password: oops
`)

	r := NewResolver(root)
	_, err := r.Get("acme")
	require.Error(t, err)
	require.True(t, Is(err, KindSecretInYAML))
}
