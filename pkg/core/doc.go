// Package core defines the shared language of DBSee.
//
// This package contains:
//   - Schema entities (TableSchema, Column, ForeignKey, Index)
//   - Query and resolution results (PageResult, Resolution)
//   - Streaming scan events (ScanEvent and its payloads)
//   - The error taxonomy shared by every layer
//   - Connection configuration (AdapterConfig, TargetConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
