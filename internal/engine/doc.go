// Package engine is the entry point to the workflow graph engine.
//
// An Engine is built once: a fixed channel schema, a set of named nodes, plain
// edges and labelled branches. Structural problems are reported as
// *model.ConfigurationError, at registration time where possible (duplicate
// names, writes to undeclared channels, cycles between registered nodes) and
// otherwise at the start of Run, before any node body executes.
//
// Each Run gets its own session: a fresh node store, scheduler, executor and
// state store seeded from the schema defaults and the caller's initial values.
// Nothing is retained between runs.
package engine
