// Package pyparse is the engine's block extractor (spec component C3).
//
// There is no mature pure-Go Python parser in this corpus (or, to our
// knowledge, the wider ecosystem) exposing AST nodes with source ranges
// the way spec §9's "language-level parse dependency" note asks for, so
// this package implements a small indentation- and bracket-depth-aware
// statement scanner directly — the Go analogue of what the original
// Rust core delegated to rustpython_parser. See DESIGN.md for the
// justification; this is the one component in the engine not grounded
// on a third-party library, because none of the retrieved examples (or
// the real ecosystem) offer one that fits.
//
// The scanner only needs enough of Python's grammar to find statement
// boundaries: indentation-delimited blocks, multi-line signatures via
// bracket depth, and string/comment-aware line splitting. It does not
// build a full expression AST.
package pyparse
