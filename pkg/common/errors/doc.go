// Package errors provides the engine's typed error hierarchy: IoError,
// ParseError, StoreError, and InvariantError, each wrapping an optional
// cause and supporting errors.Is/errors.As via Unwrap.
//
// Orchestrator pipelines (SaveBaseline, ProcessCoverageData, DetectChanges)
// recover per-file IoError/ParseError locally and continue; StoreError and
// an IoError on the root path are the only failures that abort a pipeline.
package errors
