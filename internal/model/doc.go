// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the domain types shared by every stage of the fraud
// pipeline: transaction records, flagged records, per-account summaries, the
// final report and the error taxonomy the engine and its stages agree on.
//
// # Error taxonomy
//
// Three kinds of failure exist and each is handled differently:
//
//   - ConfigurationError: the workflow graph is malformed (cycle, unknown node,
//     missing or ambiguous entry point, unmatched branch label). It is fatal and
//     surfaces before any node body runs.
//
//   - SourceError: one ingestion source failed. It is logged, counted and the
//     source is skipped; the run continues with whatever loaded.
//
//   - ComputationError: a stage could not interpret its input. It is not
//     returned as a Go error. Instead the stage writes it into its channel as an
//     {"error": ...} sentinel and every downstream stage forwards it unchanged.
//
// Records are kept as loosely typed mappings because they arrive from CSV,
// JSON, HTTP and SQL sources with different column sets. Accessors on Record
// normalise the handful of fields the rule engine relies on.
package model
