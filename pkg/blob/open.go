package blob

import (
	"context"
	"fmt"

	"github.com/lakeforge/etl/pkg/tenant"
)

// Open constructs the Fetcher a tenant's StorageProvider selects,
// reading provider credentials from ctx.StorageConfig and ctx.Env.
// Mirrors the constants.Open factory's dispatch shape.
func Open(ctx context.Context, t *tenant.TenantContext) (Fetcher, error) {
	switch t.StorageProvider {
	case tenant.ProviderLocal, "":
		dir := t.StorageConfig["root"]
		if dir == "" {
			return nil, &Error{Kind: KindUnsupported, Key: t.Slug, Err: fmt.Errorf("local provider requires storage_config.root")}
		}
		return NewLocalProvider(dir), nil
	case tenant.ProviderAzure:
		return NewAzureProvider(AzureOptions{
			AccountURL:  t.StorageConfig["account_url"],
			Container:   t.StorageConfig["container"],
			AccountName: t.StorageConfig["account_name"],
			AccountKey:  t.Env["AZURE_STORAGE_KEY"],
		})
	case tenant.ProviderS3, tenant.ProviderMinIO, tenant.ProviderGCS:
		return NewS3Provider(ctx, S3Options{
			Bucket:          t.StorageConfig["bucket"],
			Region:          t.StorageConfig["region"],
			Endpoint:        t.StorageConfig["endpoint"],
			AccessKeyID:     t.Env["AWS_ACCESS_KEY_ID"],
			SecretAccessKey: t.Env["AWS_SECRET_ACCESS_KEY"],
			UsePathStyle:    t.StorageProvider != tenant.ProviderS3,
		})
	default:
		return nil, &Error{Kind: KindUnsupported, Key: t.Slug, Err: fmt.Errorf("unknown storage provider %q", t.StorageProvider)}
	}
}
