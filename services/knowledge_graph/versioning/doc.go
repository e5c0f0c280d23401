// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package versioning implements branch-scoped versioning over a shared
// knowledge graph: git-like branches without duplicating nodes or edges.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                          Service                               │
//	│  ┌──────────┐ ┌────────┐ ┌────────┐ ┌──────┐ ┌────────┐       │
//	│  │ Registry │ │ Tagger │ │ Forker │ │ View │ │ Differ │       │
//	│  └──────────┘ └────────┘ └────────┘ └──────┘ └────────┘       │
//	│        │           │          │         │         │            │
//	│        └───────────┴──────────┴────┬────┴─────────┘            │
//	│                                    ▼                           │
//	│                          graphstore.Store                      │
//	└────────────────────────────────────────────────────────────────┘
//
// A branch names a subset of the graph: every node and edge carries an
// OnBranches membership set, and a branch's view is simply the entities
// whose set contains its id. Forking tags the bounded neighborhood around
// a node into a branch; diffing compares two views structurally.
//
// # Invariants
//
//   - Edge visibility: a view contains an edge only when the edge and both
//     of its endpoints are on the branch.
//   - Graph isolation: no operation scoped to one graph ever touches an
//     entity of another.
//   - Monotonic tagging: membership only grows. Nothing here untags.
//   - Shared content: entity properties are shared across branches.
//     Branches diverge in topology only. This is a product decision, not
//     an accident: branches are topological views, not content forks.
//
// # Crash semantics
//
// The fork sequence (validate, ensure branch, traverse, tag, record
// provenance) is not one transaction. Every step is idempotent and the
// provenance pointer is written last, so a crash mid-fork leaves at worst
// a partially tagged branch that the same fork call repairs on retry,
// never a provenance pointer to work that did not happen.
package versioning
