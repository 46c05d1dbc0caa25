// Package graph provides a unified, high-level interface for managing a
// workflow graph during a run.
//
// # Why Graph Package Exists
//
// The Graph interface serves as a facade that combines topology (structure) and node state (execution)
// into a single, cohesive API. This simplifies interactions for the executor and scheduler, which
// would otherwise need to coordinate between topologystore and nodestore directly.
//
// # Responsibilities
//
// The graph package orchestrates two underlying stores:
//   - **Topology Store** (topologystore.Store): static structure (nodes, edges, branch routes)
//   - **Node Store** (nodestore.Store): mutable per-run state (status, results, errors)
//
// On top of the stores it answers the structural questions the engine needs:
// whether the graph is well formed (Validate), where a cycle is (FindCycle,
// PathTo), in which order nodes fold into state (TopologicalOrder) and which
// nodes a given node can see (Ancestors). Structural problems are reported as
// *model.ConfigurationError.
//
// # Lifecycle
//
// 1. **Created** by a session with the shared topology and a fresh node store
// 2. **Queried** during execution (scheduler resolves edges, executor updates state)
// 3. **Discarded** when the session ends
package graph
