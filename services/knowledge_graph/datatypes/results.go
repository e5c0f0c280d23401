// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"cmp"
	"slices"
)

// =============================================================================
// Fork Results
// =============================================================================

// ForkResult describes the outcome of forking a bounded neighborhood into a
// branch.
//
// NodesTagged/EdgesTagged count every entity in the discovered neighborhood,
// whether or not it was already on the branch (the historical metric, kept
// for compatibility with existing dashboards). NodesAdded/EdgesAdded count
// only entities whose membership actually changed; a repeated fork with the
// same arguments reports Added == 0.
type ForkResult struct {
	BranchID     string `json:"branch_id"`
	SourceNodeID string `json:"source_node_id"`
	Depth        int    `json:"depth"`

	NodesTagged int `json:"nodes_tagged"`
	EdgesTagged int `json:"edges_tagged"`
	NodesAdded  int `json:"nodes_added"`
	EdgesAdded  int `json:"edges_added"`
}

// =============================================================================
// Branch Projections
// =============================================================================

// BranchGraph is the materialized view of a branch: every node on the
// branch, and every edge whose own membership and both endpoints' membership
// include the branch. It is computed per query, never persisted.
//
// Nodes are ordered by NodeID and edges by Key() so output is reproducible
// across calls; diffing and tests depend on that.
type BranchGraph struct {
	BranchID string  `json:"branch_id"`
	GraphID  string  `json:"graph_id"`
	Nodes    []*Node `json:"nodes"`
	Edges    []*Edge `json:"edges"`
}

// Sort orders nodes by NodeID and edges by canonical key.
func (bg *BranchGraph) Sort() {
	slices.SortFunc(bg.Nodes, func(a, b *Node) int {
		return cmp.Compare(a.NodeID, b.NodeID)
	})
	slices.SortFunc(bg.Edges, func(a, b *Edge) int {
		return cmp.Compare(a.Key(), b.Key())
	})
}

// NodeIDs returns the ordered node id set of the view.
func (bg *BranchGraph) NodeIDs() []string {
	ids := make([]string, 0, len(bg.Nodes))
	for _, n := range bg.Nodes {
		ids = append(ids, n.NodeID)
	}
	return ids
}

// EdgeKeys returns the ordered edge key set of the view.
func (bg *BranchGraph) EdgeKeys() []string {
	keys := make([]string, 0, len(bg.Edges))
	for _, e := range bg.Edges {
		keys = append(keys, e.Key())
	}
	return keys
}

// =============================================================================
// Branch Diff
// =============================================================================

// BranchDiff is the structural difference between two branch views.
//
// The comparison is membership-only: node ids and edge keys present in one
// view and absent from the other. Because entity content is shared across
// branches, there is no content-level diff to compute: two branches that
// both include a node always agree on its properties.
type BranchDiff struct {
	GraphID string `json:"graph_id"`
	BranchA string `json:"branch_a"`
	BranchB string `json:"branch_b"`

	NodeIDsOnlyInA []string `json:"node_ids_only_in_a"`
	NodeIDsOnlyInB []string `json:"node_ids_only_in_b"`
	EdgesOnlyInA   []string `json:"edges_only_in_a"`
	EdgesOnlyInB   []string `json:"edges_only_in_b"`
}

// Empty reports whether the two views were structurally identical.
func (d *BranchDiff) Empty() bool {
	return len(d.NodeIDsOnlyInA) == 0 && len(d.NodeIDsOnlyInB) == 0 &&
		len(d.EdgesOnlyInA) == 0 && len(d.EdgesOnlyInB) == 0
}
