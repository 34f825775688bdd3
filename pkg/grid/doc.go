// Package grid defines the shared language of arcview.
//
// This package contains:
//   - Domain entities (Matrix, Example, Dataset)
//   - The fixed color palette cell values index into
//   - Load-time validation with structured errors
//
// pkg/grid imports only the standard library. Everything else depends on
// grid, not the reverse.
package grid
