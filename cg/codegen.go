// Package cg generates a self-contained awk program from a resolved query
// (§4, §5). It is organized the way the teacher's cg package is: one file
// per pipeline concern (expression codegen, aggregate codegen, the
// embedded runtime library) assembled by a single top-level Generate.
package cg
