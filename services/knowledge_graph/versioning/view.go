// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package versioning

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

// View computes the read-path projection of a branch: which nodes and edges
// are visible there right now. Views are ephemeral; nothing is persisted.
type View struct {
	store graphstore.Store
}

// NewView creates a View over the given store.
func NewView(store graphstore.Store) *View {
	return &View{store: store}
}

// BranchGraph materializes the view of one branch.
//
// # Description
//
// Returns every node on the branch, then every edge that is on the branch
// AND has both endpoints on the branch. The endpoint check runs here, not
// in the store, because stores only filter by the edge's own membership.
// A half-tagged edge (possible mid-fork, since forks are not atomic) is
// therefore invisible until its endpoints catch up, which keeps views
// consistent for consumers.
//
// Nodes come back ordered by NodeID, edges by canonical key, so repeated
// calls over unchanged data produce identical output.
//
// # Outputs
//
//   - *datatypes.BranchGraph: The materialized view.
//   - error: Branch-not-found if the branch row is absent, wrapped store
//     errors otherwise.
func (v *View) BranchGraph(ctx context.Context, graphID, branchID string) (*datatypes.BranchGraph, error) {
	branch, err := v.store.GetBranch(ctx, graphID, branchID)
	if err != nil {
		return nil, fmt.Errorf("resolving branch %q: %w", branchID, err)
	}

	nodes, err := v.store.QueryNodesByGraph(ctx, graphID, branch.BranchID)
	if err != nil {
		return nil, fmt.Errorf("querying nodes for branch %q: %w", branchID, err)
	}
	edges, err := v.store.QueryEdgesByGraph(ctx, graphID, branch.BranchID)
	if err != nil {
		return nil, fmt.Errorf("querying edges for branch %q: %w", branchID, err)
	}

	visible := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		visible[node.NodeID] = true
	}

	visibleEdges := make([]*datatypes.Edge, 0, len(edges))
	for _, edge := range edges {
		if visible[edge.SourceID] && visible[edge.TargetID] {
			visibleEdges = append(visibleEdges, edge)
		}
	}

	bg := &datatypes.BranchGraph{
		BranchID: branch.BranchID,
		GraphID:  graphID,
		Nodes:    nodes,
		Edges:    visibleEdges,
	}
	bg.Sort()
	return bg, nil
}
