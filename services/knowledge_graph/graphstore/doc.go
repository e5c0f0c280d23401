// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphstore defines the storage contract consumed by the branch
// versioning engine, and a shared traversal helper for backends without a
// native bounded-neighborhood query.
//
// Three implementations exist:
//
//   - memstore: in-memory, for tests and local development
//   - badgerstore: embedded BadgerDB persistence
//   - weaviatestore: the production Weaviate data plane
//
// # Graph isolation
//
// Every operation is scoped by graphID, and implementations must never
// return an entity whose own GraphID differs from the one requested. The
// engine layers no second check on top of reads, so this is a hard
// contract, not a hint.
//
// # Atomicity
//
// Single operations are atomic per backend statement. Multi-step sequences
// (the fork path in particular) are not transactional across calls; the
// engine compensates by keeping every write idempotent.
package graphstore
