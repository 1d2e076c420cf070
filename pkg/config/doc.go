/*
Package config resolves a tenant's fully merged configuration from the
layered YAML tree on disk: shared defaults, StarRocks connection-pool and
stream-load defaults, shared business rules, the tenant's own
config.yaml, and finally its .env secrets layer (merged flat, never
deep-merged into the YAML tree).

Each layer is unmarshalled into an untyped map[string]any that is
checked for reserved secret-shaped keys; unknown sections are not
rejected. The layers are deep-merged, {tenant_slug} is substituted, and
the merged tree is converted field by field into a tenant.TenantContext.
A Resolver is safe for concurrent use; Get always returns a
TenantContext marked frozen (see tenant.TenantContext.Freeze).
*/
package config
