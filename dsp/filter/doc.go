// Package filter provides the resonant filter used by filter nodes: a
// Direct Form II Transposed biquad [Section] driven by RBJ cookbook
// coefficient designs, wrapped by [Filter] for live parameter changes.
package filter
