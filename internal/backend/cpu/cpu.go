// Package cpu implements the float32 compute kernels used by the tensor
// and nn packages: matrix multiplication, 2D convolution and pooling,
// plus their backward counterparts.
//
// Kernels operate on raw slices with explicit dimensions so they stay
// free of higher-level tensor types. Shape validation happens in the
// callers; kernels assume correctly sized buffers.
package cpu

import "github.com/dakofler/walnut/internal/parallel"

// cfg controls kernel parallelism. Kernels split work across
// goroutines when the iteration space is large enough.
var cfg = parallel.DefaultConfig()

// SetParallelism enables or disables kernel-level parallelism.
// Mostly useful for benchmarking and deterministic debugging.
func SetParallelism(enabled bool) {
	cfg.Enabled = enabled
}
