// Package state implements the channel-structured state that flows through a
// workflow run.
//
// A Schema fixes, once per engine, the set of channels and the reducer each
// one uses. Nodes never see the mutable Store: they receive an immutable
// Snapshot and return a Partial naming only the channels they write. The
// engine folds partials into the store through the channel reducers.
//
// Reducers form a closed set:
//
//   - Replace: the new value overwrites the old one.
//   - Append: sequences are concatenated in call order.
//   - Merge: shallow right-biased union of mappings.
//
// Every reducer returns a fresh value, so a snapshot handed to one node can
// never observe a write made for another.
package state
