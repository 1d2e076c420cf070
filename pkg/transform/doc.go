/*
Package transform implements the silver-layer pipeline: column
mapping, type coercion with cleaning rules, computed columns, and
row-level filters, applied in that fixed order. The result has every
column the database schema requires, in arbitrary order — column
reordering is pkg/loadcheck's job, not this package's.
*/
package transform
