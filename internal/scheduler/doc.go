// Package scheduler provides the decision-making engine for a workflow run.
// Its primary role is to track the resolution of every edge and decide which
// nodes become ready, which are skipped and when the run has nothing left to do.
//
// A node with several incoming edges is a join: it becomes ready only once
// every incoming edge is resolved. An edge resolves live when its source
// completes (and, for a branch edge, the source chose its label) and dead when
// its source is skipped or chose another label. A node whose incoming edges
// all resolve dead is skipped, which in turn resolves its own outgoing edges
// dead.
package scheduler
