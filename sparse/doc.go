// Package sparse implements the compressed-row responsibility storage used
// by the VB resegmentation engine.
//
// A Matrix holds, per processed tick, a sparse distribution over
// (UBM component, speaker slot) pairs. Rows are kept normalized to unit
// mass; entries below a configured threshold are pruned to exactly zero
// and removed, and callers renormalize afterwards. The structure is
// deliberately self-contained: the numeric core does not depend on any
// array or sparse-matrix library.
//
// # Layout
//
// Each row stores parallel slices of packed (component, speaker) keys and
// masses, sorted by component then speaker. Lookups binary-search the key
// slice; component-grouped and speaker-grouped traversals are linear scans.
//
// # Usage
//
//	m := sparse.New(ticks, speakers)
//	m.SetRowProduct(t, comps, compMass, speakerMass, thr)
//	sum := m.RowSum(t)
//	m.Prune(thr)
//	m.NormalizeRow(t)
package sparse
