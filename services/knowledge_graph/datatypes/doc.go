// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the entity types for the knowledge graph
// versioning service.
//
// The data model is deliberately small:
//
//   - GraphSpace: tenant-scoped container owning one knowledge graph.
//   - Branch: a named, lightweight view over a subset of a GraphSpace.
//   - Node / Edge: shared graph entities carrying a branch membership set.
//   - BranchGraph / BranchDiff / ForkResult: read-path projections.
//
// # Branch membership
//
// Branches do not copy entities. A node or edge is "on" a branch when the
// branch id appears in its OnBranches set, and membership is append-only:
// forking adds membership, nothing removes it. Entity content (Properties)
// is shared across every branch that includes the entity, so branches
// diverge only in topology, never in content. This is an intentional
// product decision: branches are topological views, not content forks.
//
// # Validation
//
// Request-facing types use go-playground/validator tags plus Validate()
// methods that return sentinel errors, following the orchestrator
// datatypes conventions.
package datatypes
