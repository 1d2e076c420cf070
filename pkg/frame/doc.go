/*
Package frame implements the engine's in-memory columnar container.

A Frame is an ordered list of named Columns sharing a row count. Column
is a tagged union over the handful of logical types the pipeline cares
about (int64, float64, string, bool, time) — each backed by a plain Go
slice plus a parallel null bitmap, not a generic container, matching the
plain-struct style used throughout the rest of the engine.

Frames are immutable after construction: every stage in pkg/convert,
pkg/transform, and pkg/loadcheck returns a new *Frame rather than
mutating one in place. Project implements column reordering, the single
most safety-critical operation in the whole pipeline — bulk loading
depends on the frame's column order exactly matching the live database
schema, and Project is the only place that permutation happens.
*/
package frame
