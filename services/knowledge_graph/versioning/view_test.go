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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

func TestView_BranchGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("default branch sees everything seeded", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1", "n2", "n3")

		view, err := svc.GetBranchGraph(ctx, "g1", datatypes.DefaultBranchName)
		require.NoError(t, err)

		assert.Equal(t, []string{"n1", "n2", "n3"}, view.NodeIDs())
		assert.Equal(t, []string{"n1|relates_to|n2", "n2|relates_to|n3"}, view.EdgeKeys())
	})

	t.Run("edge with an untagged endpoint stays invisible", func(t *testing.T) {
		svc, store := newTestService(t)
		seedChain(t, svc, "g1", "n1", "n2")

		// Simulate a fork interrupted between edge and endpoint tagging:
		// the edge and one endpoint are on the branch, the other is not.
		_, err := svc.registry.EnsureBranch(ctx, "g1", "feature")
		require.NoError(t, err)

		n1, err := store.GetNode(ctx, "g1", "n1")
		require.NoError(t, err)
		_, err = svc.tagger.TagNode(ctx, n1, "feature")
		require.NoError(t, err)

		edge, err := store.GetEdge(ctx, "g1", "n1", "relates_to", "n2")
		require.NoError(t, err)
		_, err = svc.tagger.TagEdge(ctx, edge, "feature")
		require.NoError(t, err)

		view, err := svc.GetBranchGraph(ctx, "g1", "feature")
		require.NoError(t, err)
		assert.Equal(t, []string{"n1"}, view.NodeIDs())
		assert.Empty(t, view.Edges, "edge hidden until both endpoints are tagged")
	})

	t.Run("every returned edge has both endpoints returned", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1", "n2", "n3", "n4", "n5")

		_, err := svc.ForkFromNode(ctx, &datatypes.ForkRequest{
			GraphID: "g1", BranchID: "feature", SourceNodeID: "n3", Depth: 1,
		})
		require.NoError(t, err)

		view, err := svc.GetBranchGraph(ctx, "g1", "feature")
		require.NoError(t, err)

		onBranch := make(map[string]bool)
		for _, n := range view.Nodes {
			onBranch[n.NodeID] = true
		}
		for _, e := range view.Edges {
			assert.True(t, onBranch[e.SourceID], "edge %s source visible", e.Key())
			assert.True(t, onBranch[e.TargetID], "edge %s target visible", e.Key())
		}
	})

	t.Run("output is deterministic across calls", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n4", "n2", "n5", "n1", "n3")

		first, err := svc.GetBranchGraph(ctx, "g1", datatypes.DefaultBranchName)
		require.NoError(t, err)
		second, err := svc.GetBranchGraph(ctx, "g1", datatypes.DefaultBranchName)
		require.NoError(t, err)

		assert.Equal(t, first.NodeIDs(), second.NodeIDs())
		assert.Equal(t, first.EdgeKeys(), second.EdgeKeys())
		assert.IsIncreasing(t, first.NodeIDs())
	})

	t.Run("missing branch fails", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		_, err := svc.GetBranchGraph(ctx, "g1", "ghost")
		assert.ErrorIs(t, err, graphstore.ErrBranchNotFound)
	})
}
