/*
Package loadcheck fetches a table's live database schema and
reconciles a silver-layer frame against it: adding missing nullable
columns, widening overflowing varchar columns, range-checking numeric
columns, dropping columns the live table doesn't have, and finally
projecting the frame to the live column order.

Reconcile is the only place frame.Project is called for a load path —
callers never reorder a frame themselves, which forecloses the
positional-bulk-load column-mismatch hazard the database's stream-load
endpoint otherwise invites.
*/
package loadcheck
