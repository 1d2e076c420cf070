/*
Package convert turns a downloaded source file into the bronze-layer
columnar Frame: a faithful, untransformed mirror of the source with
column names preserved verbatim and native types kept where the source
format carries type information. No renaming, coercion, or filtering
happens here — that belongs to pkg/transform.
*/
package convert
