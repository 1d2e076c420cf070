/*
Package tenant defines the per-tenant data model: the tenant registry
entry, the resolved TenantContext a pipeline run operates against, and
the table/column/rule types that describe how a tenant's source files
map onto its StarRocks schema.

Computed-column rules are modeled as a tagged union (Kind plus a
matching params struct) rather than an interface hierarchy, mirroring
how the rest of the engine treats dynamic, config-driven variants.
BuildDependencyGraph topologically sorts a table's computed columns so
pkg/transform can evaluate them in dependency order and reject cycles
before any file is touched.
*/
package tenant
