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
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

// Forker populates a branch by tagging a bounded neighborhood around a
// source node into it.
type Forker struct {
	store    graphstore.Store
	registry *Registry
	tagger   *Tagger
	logger   *slog.Logger
	now      func() time.Time
}

// NewForker creates a Forker sharing the registry's store.
func NewForker(store graphstore.Store, registry *Registry, tagger *Tagger, logger *slog.Logger) *Forker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forker{
		store:    store,
		registry: registry,
		tagger:   tagger,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ForkFromNode tags the neighborhood of a node into a branch.
//
// # Description
//
// The sequence, in order:
//
//  1. Validate the source node exists in the graph. This happens before
//     any write so a fork of a missing node leaves zero state behind.
//  2. Ensure the branch row exists (idempotent).
//  3. Clamp depth to [MinForkDepth, MaxForkDepth]. Out-of-range values
//     are clamped silently, never rejected. The cap bounds traversal
//     cost, and asking for more than the cap just yields the cap.
//  4. Discover the undirected, deduplicated neighborhood within depth.
//  5. Tag every discovered node and edge. Re-tagging is a no-op, so
//     retries and overlapping forks are safe without locks.
//  6. Record fork provenance (SourceNodeID, UpdatedAt) on the branch row,
//     overwriting any earlier fork's provenance. This is deliberately the
//     LAST write: a crash before it never leaves a provenance pointer to
//     tagging that did not complete.
//
// # Inputs
//
//   - ctx: Context for cancellation. Checked by the traversal.
//   - req: Graph scope, target branch id, source node id, depth.
//
// # Outputs
//
//   - *datatypes.ForkResult: Neighborhood totals plus newly-tagged deltas.
//   - error: Not-found errors for a missing graph or source node,
//     otherwise wrapped store errors. The fork is safe to re-run with the
//     same arguments after any failure.
func (f *Forker) ForkFromNode(ctx context.Context, req *datatypes.ForkRequest) (*datatypes.ForkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating fork request: %w", err)
	}

	if _, err := f.store.GetNode(ctx, req.GraphID, req.SourceNodeID); err != nil {
		return nil, fmt.Errorf("resolving fork source node: %w", err)
	}

	branch, err := f.registry.EnsureBranch(ctx, req.GraphID, req.BranchID)
	if err != nil {
		return nil, err
	}

	depth := datatypes.ClampForkDepth(req.Depth)
	if depth != req.Depth {
		f.logger.Debug("fork depth clamped",
			"requested", req.Depth,
			"effective", depth)
	}

	neighborhood, err := f.store.BoundedNeighborhood(ctx, req.GraphID, req.SourceNodeID, depth)
	if err != nil {
		return nil, fmt.Errorf("expanding neighborhood of %q: %w", req.SourceNodeID, err)
	}

	result := &datatypes.ForkResult{
		BranchID:     branch.BranchID,
		SourceNodeID: req.SourceNodeID,
		Depth:        depth,
		NodesTagged:  len(neighborhood.Nodes),
		EdgesTagged:  len(neighborhood.Edges),
	}

	for _, node := range neighborhood.Nodes {
		added, err := f.tagger.TagNode(ctx, node, branch.BranchID)
		if err != nil {
			return nil, err
		}
		if added {
			result.NodesAdded++
		}
	}
	for _, edge := range neighborhood.Edges {
		added, err := f.tagger.TagEdge(ctx, edge, branch.BranchID)
		if err != nil {
			return nil, err
		}
		if added {
			result.EdgesAdded++
		}
	}

	// Provenance last; see the ordering note above.
	branch.SourceNodeID = req.SourceNodeID
	branch.UpdatedAt = f.now()
	if err := f.store.UpdateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("recording fork provenance on branch %q: %w", branch.BranchID, err)
	}

	f.logger.Info("fork complete",
		"graph_id", req.GraphID,
		"branch_id", branch.BranchID,
		"source_node_id", req.SourceNodeID,
		"depth", depth,
		"nodes_tagged", result.NodesTagged,
		"edges_tagged", result.EdgesTagged,
		"nodes_added", result.NodesAdded,
		"edges_added", result.EdgesAdded)
	return result, nil
}
