// Package pipeline wires blob, convert, transform, loadcheck, bulkload,
// and constants into the per-table and per-job run loop: a table moves
// through Discovered, Downloaded, Converted, Transformed, Validated and
// Loaded, and a job is the ordered run of one or more tables for one
// tenant. TenantPool fans runs out across tenants with a bounded worker
// count.
package pipeline
