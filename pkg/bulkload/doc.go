/*
Package bulkload implements the Validator+BulkLoader subsystem (spec.md
§4.5.4-6, §6.4): it serializes a reconciled, column-ordered frame into
fixed-size chunks and streams each one into StarRocks' HTTP Stream Load
endpoint, plus the SQL control-plane operations (truncate, ALTER
MODIFY COLUMN) the loader and pkg/loadcheck need around the load.

Column order is never touched here — by the time a frame reaches
Loader.LoadTable it has already been projected to the live schema's
order by pkg/loadcheck.Reconcile, and this package serializes rows in
that order positionally, matching the endpoint's positional binding
contract (spec.md §9).
*/
package bulkload
