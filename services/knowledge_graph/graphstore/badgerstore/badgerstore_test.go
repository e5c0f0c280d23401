// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedSpace(t *testing.T, store *Store, graphID string) {
	t.Helper()
	err := store.CreateGraphSpace(context.Background(), &datatypes.GraphSpace{
		GraphID:  graphID,
		TenantID: "tenant-1",
		Name:     "test graph",
	})
	require.NoError(t, err)
}

func mustUpsertNode(t *testing.T, store *Store, graphID, nodeID string, branches ...string) {
	t.Helper()
	node := &datatypes.Node{
		NodeID:     nodeID,
		GraphID:    graphID,
		Properties: map[string]any{"label": nodeID},
	}
	for _, b := range branches {
		node.AddBranch(b)
	}
	require.NoError(t, store.UpsertNode(context.Background(), node))
}

func mustCreateEdge(t *testing.T, store *Store, graphID, src, pred, tgt string, branches ...string) {
	t.Helper()
	edge := &datatypes.Edge{
		SourceID:  src,
		TargetID:  tgt,
		Predicate: pred,
		GraphID:   graphID,
	}
	for _, b := range branches {
		edge.AddBranch(b)
	}
	require.NoError(t, store.CreateEdge(context.Background(), edge))
}

func TestOpen(t *testing.T) {
	t.Run("rejects missing path for persistent mode", func(t *testing.T) {
		_, err := Open(Config{})
		assert.Error(t, err)
	})

	t.Run("persists across reopen", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		store, err := Open(DefaultConfig(dir))
		require.NoError(t, err)
		seedSpace(t, store, "g1")
		mustUpsertNode(t, store, "g1", "n1", "main")
		require.NoError(t, store.Close())

		reopened, err := Open(DefaultConfig(dir))
		require.NoError(t, err)
		defer reopened.Close()

		node, err := reopened.GetNode(ctx, "g1", "n1")
		require.NoError(t, err)
		assert.Equal(t, "n1", node.Properties["label"])
	})
}

func TestStore_GraphSpaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("create and read back", func(t *testing.T) {
		seedSpace(t, store, "g1")
		space, err := store.GetGraphSpace(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", space.TenantID)
		assert.False(t, space.CreatedAt.IsZero())
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		err := store.CreateGraphSpace(ctx, &datatypes.GraphSpace{
			GraphID: "g1", TenantID: "tenant-1", Name: "dup",
		})
		assert.ErrorIs(t, err, graphstore.ErrGraphSpaceExists)
	})

	t.Run("missing space", func(t *testing.T) {
		_, err := store.GetGraphSpace(ctx, "nope")
		assert.ErrorIs(t, err, graphstore.ErrGraphSpaceNotFound)
	})
}

func TestStore_Nodes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSpace(t, store, "g1")

	t.Run("upsert replaces", func(t *testing.T) {
		mustUpsertNode(t, store, "g1", "n1", "main")
		err := store.UpsertNode(ctx, &datatypes.Node{
			NodeID:     "n1",
			GraphID:    "g1",
			Properties: map[string]any{"label": "renamed"},
			OnBranches: []string{"feature", "main"},
		})
		require.NoError(t, err)

		node, err := store.GetNode(ctx, "g1", "n1")
		require.NoError(t, err)
		assert.Equal(t, "renamed", node.Properties["label"])
		assert.Equal(t, []string{"feature", "main"}, node.OnBranches)
	})

	t.Run("missing node carries its ids", func(t *testing.T) {
		_, err := store.GetNode(ctx, "g1", "ghost")
		assert.ErrorIs(t, err, graphstore.ErrNodeNotFound)

		var notFound *graphstore.NodeNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ghost", notFound.NodeID)
	})

	t.Run("write to unknown graph fails", func(t *testing.T) {
		err := store.UpsertNode(ctx, &datatypes.Node{NodeID: "n1", GraphID: "nope"})
		assert.ErrorIs(t, err, graphstore.ErrGraphSpaceNotFound)
	})
}

func TestStore_Edges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSpace(t, store, "g1")
	mustUpsertNode(t, store, "g1", "n1", "main")
	mustUpsertNode(t, store, "g1", "n2", "main")

	t.Run("create then read back", func(t *testing.T) {
		mustCreateEdge(t, store, "g1", "n1", "relates_to", "n2", "main")
		edge, err := store.GetEdge(ctx, "g1", "n1", "relates_to", "n2")
		require.NoError(t, err)
		assert.Equal(t, "n1|relates_to|n2", edge.Key())
	})

	t.Run("duplicate identity fails", func(t *testing.T) {
		err := store.CreateEdge(ctx, &datatypes.Edge{
			SourceID: "n1", TargetID: "n2", Predicate: "relates_to", GraphID: "g1",
		})
		assert.ErrorIs(t, err, graphstore.ErrEdgeExists)
	})

	t.Run("same endpoints different predicate is a new edge", func(t *testing.T) {
		mustCreateEdge(t, store, "g1", "n1", "supports", "n2", "main")
		_, err := store.GetEdge(ctx, "g1", "n1", "supports", "n2")
		assert.NoError(t, err)
	})

	t.Run("upsert replaces membership", func(t *testing.T) {
		err := store.UpsertEdge(ctx, &datatypes.Edge{
			SourceID: "n1", TargetID: "n2", Predicate: "relates_to", GraphID: "g1",
			OnBranches: []string{"feature", "main"},
		})
		require.NoError(t, err)

		edge, err := store.GetEdge(ctx, "g1", "n1", "relates_to", "n2")
		require.NoError(t, err)
		assert.Equal(t, []string{"feature", "main"}, edge.OnBranches)
	})

	t.Run("missing edge", func(t *testing.T) {
		_, err := store.GetEdge(ctx, "g1", "n2", "relates_to", "n1")
		assert.ErrorIs(t, err, graphstore.ErrEdgeNotFound)
	})
}

func TestStore_Branches(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSpace(t, store, "g1")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"main", "alpha", "beta"} {
		err := store.CreateBranch(ctx, &datatypes.Branch{
			BranchID:  id,
			GraphID:   "g1",
			Name:      id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("list orders by creation time", func(t *testing.T) {
		branches, err := store.ListBranches(ctx, "g1")
		require.NoError(t, err)
		ids := make([]string, len(branches))
		for i, b := range branches {
			ids[i] = b.BranchID
		}
		assert.Equal(t, []string{"main", "alpha", "beta"}, ids)
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		err := store.CreateBranch(ctx, &datatypes.Branch{
			BranchID: "main", GraphID: "g1", Name: "main", CreatedAt: base,
		})
		assert.ErrorIs(t, err, graphstore.ErrBranchExists)
	})

	t.Run("update overwrites provenance", func(t *testing.T) {
		branch, err := store.GetBranch(ctx, "g1", "alpha")
		require.NoError(t, err)

		branch.SourceNodeID = "n7"
		branch.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, store.UpdateBranch(ctx, branch))

		got, err := store.GetBranch(ctx, "g1", "alpha")
		require.NoError(t, err)
		assert.Equal(t, "n7", got.SourceNodeID)
	})

	t.Run("update of missing branch fails", func(t *testing.T) {
		err := store.UpdateBranch(ctx, &datatypes.Branch{
			BranchID: "ghost", GraphID: "g1", Name: "ghost", CreatedAt: base,
		})
		assert.ErrorIs(t, err, graphstore.ErrBranchNotFound)
	})
}

func TestStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSpace(t, store, "g1")
	seedSpace(t, store, "g10")

	mustUpsertNode(t, store, "g1", "n1", "main", "feature")
	mustUpsertNode(t, store, "g1", "n2", "main")
	mustUpsertNode(t, store, "g10", "n1", "main")
	mustCreateEdge(t, store, "g1", "n1", "relates_to", "n2", "main")

	t.Run("nodes filtered by branch, ordered by id", func(t *testing.T) {
		onMain, err := store.QueryNodesByGraph(ctx, "g1", "main")
		require.NoError(t, err)
		require.Len(t, onMain, 2)
		assert.Equal(t, "n1", onMain[0].NodeID)
		assert.Equal(t, "n2", onMain[1].NodeID)

		onFeature, err := store.QueryNodesByGraph(ctx, "g1", "feature")
		require.NoError(t, err)
		require.Len(t, onFeature, 1)
		assert.Equal(t, "n1", onFeature[0].NodeID)
	})

	t.Run("edges filtered by branch", func(t *testing.T) {
		edges, err := store.QueryEdgesByGraph(ctx, "g1", "main")
		require.NoError(t, err)
		require.Len(t, edges, 1)

		none, err := store.QueryEdgesByGraph(ctx, "g1", "feature")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("graph id prefixes do not bleed", func(t *testing.T) {
		nodes, err := store.QueryNodesByGraph(ctx, "g1", "main")
		require.NoError(t, err)
		for _, n := range nodes {
			assert.Equal(t, "g1", n.GraphID)
		}

		twin, err := store.QueryNodesByGraph(ctx, "g10", "main")
		require.NoError(t, err)
		require.Len(t, twin, 1)
		assert.Equal(t, "g10", twin[0].GraphID)
	})
}

func TestStore_BoundedNeighborhood(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSpace(t, store, "g1")

	// n1 - n2 - n3 - n4
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		mustUpsertNode(t, store, "g1", id, "main")
	}
	mustCreateEdge(t, store, "g1", "n1", "relates_to", "n2", "main")
	mustCreateEdge(t, store, "g1", "n2", "relates_to", "n3", "main")
	mustCreateEdge(t, store, "g1", "n3", "relates_to", "n4", "main")

	t.Run("depth bounds the walk", func(t *testing.T) {
		hood, err := store.BoundedNeighborhood(ctx, "g1", "n2", 1)
		require.NoError(t, err)

		ids := make([]string, len(hood.Nodes))
		for i, n := range hood.Nodes {
			ids[i] = n.NodeID
		}
		assert.Equal(t, []string{"n1", "n2", "n3"}, ids)

		keys := make([]string, len(hood.Edges))
		for i, e := range hood.Edges {
			keys[i] = e.Key()
		}
		assert.Equal(t, []string{"n1|relates_to|n2", "n2|relates_to|n3"}, keys)
	})

	t.Run("depth zero is the node alone", func(t *testing.T) {
		hood, err := store.BoundedNeighborhood(ctx, "g1", "n2", 0)
		require.NoError(t, err)
		require.Len(t, hood.Nodes, 1)
		assert.Empty(t, hood.Edges)
	})

	t.Run("missing start node fails", func(t *testing.T) {
		_, err := store.BoundedNeighborhood(ctx, "g1", "ghost", 2)
		assert.ErrorIs(t, err, graphstore.ErrNodeNotFound)
	})
}
