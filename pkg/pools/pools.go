// Package pools provides object pooling for reducing GC pressure.
//
// Traversal state is sized by node count and allocated per BFS wave, so
// reusing it across waves keeps the heap flat while many waves run.
//
//   - WordPool: fixed-length uint64 slabs (bit-vector state per node)
package pools
