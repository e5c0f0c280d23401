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

// Tagger is the additive membership primitive: it marks nodes and edges as
// visible in a branch.
//
// Tagging is a set union, idempotent and order-independent, and there is
// no untag operation anywhere in this service. Those two properties are
// what make the non-transactional fork sequence safe to retry, so any
// change here has to keep them.
type Tagger struct {
	store graphstore.Store
}

// NewTagger creates a Tagger over the given store.
func NewTagger(store graphstore.Store) *Tagger {
	return &Tagger{store: store}
}

// TagNode adds branchID to the node's membership set and persists it.
// Returns true if membership changed, false if the node was already on the
// branch (in which case nothing is written).
func (t *Tagger) TagNode(ctx context.Context, node *datatypes.Node, branchID string) (bool, error) {
	if !node.AddBranch(branchID) {
		return false, nil
	}
	if err := t.store.UpsertNode(ctx, node); err != nil {
		return false, fmt.Errorf("persisting node %q membership: %w", node.NodeID, err)
	}
	return true, nil
}

// TagEdge adds branchID to the edge's membership set and persists it.
// Returns true if membership changed.
//
// Unlike the node path, an edge without a graph id is an error here, not
// something to repair: edges get their graph scope at creation and the
// store refuses to persist one without it.
func (t *Tagger) TagEdge(ctx context.Context, edge *datatypes.Edge, branchID string) (bool, error) {
	if edge.GraphID == "" {
		return false, datatypes.ErrEmptyGraphID
	}
	if !edge.AddBranch(branchID) {
		return false, nil
	}
	if err := t.store.UpsertEdge(ctx, edge); err != nil {
		return false, fmt.Errorf("persisting edge %q membership: %w", edge.Key(), err)
	}
	return true, nil
}
