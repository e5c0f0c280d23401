// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphstore

import (
	"context"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

// Neighborhood is the deduplicated set of nodes and edges reachable from a
// start node within a depth bound, treating every edge as undirected. An
// entity reached over multiple paths appears once.
type Neighborhood struct {
	Nodes []*datatypes.Node
	Edges []*datatypes.Edge
}

// Store is the storage contract consumed by the versioning engine.
//
// # Description
//
// Store abstracts the property-graph backend: entity upsert/read, branch
// metadata rows, branch-filtered queries, and bounded undirected traversal.
// All methods take the graph scope explicitly; none of them consult ambient
// state.
//
// # Error Semantics
//
//   - Reads of absent entities return the package sentinel errors
//     (possibly wrapped).
//   - CreateGraphSpace, CreateBranch, and CreateEdge fail on duplicates
//     with the matching conflict sentinel.
//   - Upserts are idempotent writes and do not fail on existence.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Overlapping upserts of
// the same entity may interleave; callers rely on idempotence, not on
// cross-call isolation.
type Store interface {
	// GraphSpace metadata
	CreateGraphSpace(ctx context.Context, space *datatypes.GraphSpace) error
	GetGraphSpace(ctx context.Context, graphID string) (*datatypes.GraphSpace, error)

	// Nodes
	UpsertNode(ctx context.Context, node *datatypes.Node) error
	GetNode(ctx context.Context, graphID, nodeID string) (*datatypes.Node, error)

	// Edges. Edge identity is (GraphID, SourceID, Predicate, TargetID).
	CreateEdge(ctx context.Context, edge *datatypes.Edge) error
	UpsertEdge(ctx context.Context, edge *datatypes.Edge) error
	GetEdge(ctx context.Context, graphID, sourceID, predicate, targetID string) (*datatypes.Edge, error)

	// Branch metadata rows
	CreateBranch(ctx context.Context, branch *datatypes.Branch) error
	GetBranch(ctx context.Context, graphID, branchID string) (*datatypes.Branch, error)
	UpdateBranch(ctx context.Context, branch *datatypes.Branch) error
	ListBranches(ctx context.Context, graphID string) ([]*datatypes.Branch, error)

	// Branch-filtered reads. Both return only entities whose OnBranches
	// contains branchID, scoped to graphID. Edge results are NOT filtered
	// by endpoint visibility; that is the view layer's job.
	QueryNodesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Node, error)
	QueryEdgesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Edge, error)

	// BoundedNeighborhood returns every node and edge reachable from
	// startNodeID within maxDepth undirected hops, restricted to graphID.
	// An edge is included only when both of its endpoints are within the
	// bound. Fails with ErrGraphSpaceNotFound or ErrNodeNotFound when the
	// scope is absent.
	BoundedNeighborhood(ctx context.Context, graphID, startNodeID string, maxDepth int) (*Neighborhood, error)
}
