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
	"fmt"
	"sort"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

// EdgeLister is the minimal read surface the shared traversal needs: a bulk
// query for edges touching any of a set of nodes. Backends answer it with
// one query per BFS frontier instead of one per node.
type EdgeLister interface {
	EdgesTouching(ctx context.Context, graphID string, nodeIDs []string) ([]*datatypes.Edge, error)
}

// ExpandFrontier runs a frontier-at-a-time undirected BFS from startNodeID
// and returns the reachable node ids (sorted) plus the edges with both
// endpoints inside the bound (sorted by key).
//
// # Description
//
// Used by backends without a native bounded-traversal primitive. Each BFS
// level issues a single EdgesTouching call for the whole frontier, plus one
// closing call over the final frontier, so the query count is bounded by
// maxDepth+1, not by neighborhood size. Edges seen at the boundary whose
// far endpoint lies beyond maxDepth are dropped: the neighborhood contains
// an edge only when both endpoints are within the bound.
//
// # Inputs
//
//   - ctx: Context for cancellation. Checked once per level.
//   - lister: Bulk edge query. Must restrict results to graphID.
//   - graphID: Graph scope.
//   - startNodeID: BFS origin. Assumed validated by the caller.
//   - maxDepth: Hop bound. Zero yields only the start node.
//
// # Outputs
//
//   - []string: Sorted ids of reachable nodes, start node included.
//   - []*datatypes.Edge: Edges with both endpoints reachable, sorted by key.
//   - error: Non-nil on lister failure or cancelled context.
func ExpandFrontier(ctx context.Context, lister EdgeLister, graphID, startNodeID string, maxDepth int) ([]string, []*datatypes.Edge, error) {
	visited := map[string]bool{startNodeID: true}
	seenEdges := make(map[string]*datatypes.Edge)

	frontier := []string{startNodeID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		edges, err := lister.EdgesTouching(ctx, graphID, frontier)
		if err != nil {
			return nil, nil, fmt.Errorf("expanding frontier at depth %d: %w", depth+1, err)
		}

		// Every edge here touches the frontier, so any unvisited endpoint
		// sits at exactly depth+1.
		var next []string
		for _, edge := range edges {
			seenEdges[edge.Key()] = edge
			for _, end := range [2]string{edge.SourceID, edge.TargetID} {
				if visited[end] {
					continue
				}
				visited[end] = true
				next = append(next, end)
			}
		}
		frontier = next
	}

	// Nodes on the final frontier may be joined to each other by edges the
	// loop never queried for. One closing call finds them; no new nodes
	// are admitted here.
	if maxDepth > 0 && len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		edges, err := lister.EdgesTouching(ctx, graphID, frontier)
		if err != nil {
			return nil, nil, fmt.Errorf("closing frontier at depth %d: %w", maxDepth, err)
		}
		for _, edge := range edges {
			if visited[edge.SourceID] && visited[edge.TargetID] {
				seenEdges[edge.Key()] = edge
			}
		}
	}

	nodeIDs := make([]string, 0, len(visited))
	for id := range visited {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	// Drop boundary edges whose far endpoint fell outside the bound.
	edges := make([]*datatypes.Edge, 0, len(seenEdges))
	for _, edge := range seenEdges {
		if visited[edge.SourceID] && visited[edge.TargetID] {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Key() < edges[j].Key() })

	return nodeIDs, edges, nil
}
