/*
Package constants implements the business-constants backend (spec.md
§6.5): a small key→value lookup a tenant's computed-column rules and
row filters may consult for things like material-type allowlists or
threshold dates, stored outside the tenant's own OLAP database.

Three variants share one Backend interface: SQLBackend (a relational
table), DocumentBackend (an embedded bbolt bucket, standing in for a
networked document store — see DESIGN.md for why), and SameDBBackend
(a table inside the tenant's own StarRocks database). Credentials for
all three are read from TenantContext.Env under the tenant's
BC_<uuid-prefix>_ prefix, never from the YAML config tree.
*/
package constants
