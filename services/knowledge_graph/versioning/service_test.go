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

func TestService_CreateGraphSpace(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the default branch alongside the space", func(t *testing.T) {
		svc, _ := newTestService(t)

		space, err := svc.CreateGraphSpace(ctx, &datatypes.GraphSpace{
			TenantID: "t1",
			Name:     "cell biology",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, space.GraphID, "graph id generated")

		branches, err := svc.ListBranches(ctx, space.GraphID)
		require.NoError(t, err)
		require.Len(t, branches, 1)
		assert.Equal(t, datatypes.DefaultBranchName, branches[0].BranchID)
	})

	t.Run("requires a tenant", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreateGraphSpace(ctx, &datatypes.GraphSpace{Name: "x"})
		assert.ErrorIs(t, err, datatypes.ErrEmptyTenantID)
	})
}

// TestService_AddNode covers node ingestion and the append-only membership
// guarantee: updating a node's properties must never shrink the set of
// branches it is on.
func TestService_AddNode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	seedChain(t, svc, "g1", "n1", "n2", "n3")

	t.Run("new nodes land on the default branch", func(t *testing.T) {
		node, err := svc.AddNode(ctx, "g1", "n4", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{datatypes.DefaultBranchName}, node.OnBranches)
	})

	t.Run("updating a node keeps its branch memberships", func(t *testing.T) {
		_, err := svc.ForkFromNode(ctx, &datatypes.ForkRequest{
			GraphID: "g1", BranchID: "feature", SourceNodeID: "n2", Depth: 1,
		})
		require.NoError(t, err)

		node, err := svc.AddNode(ctx, "g1", "n2", map[string]any{"label": "revised"})
		require.NoError(t, err)
		assert.Equal(t, []string{"feature", datatypes.DefaultBranchName}, node.OnBranches)

		view, err := svc.GetBranchGraph(ctx, "g1", "feature")
		require.NoError(t, err)
		assert.Equal(t, "revised", findNode(t, view, "n2").Properties["label"])
	})
}

func TestService_AddEdge(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	seedChain(t, svc, "g1", "n1", "n2")

	t.Run("tags the default branch", func(t *testing.T) {
		view, err := svc.GetBranchGraph(ctx, "g1", datatypes.DefaultBranchName)
		require.NoError(t, err)
		assert.Equal(t, []string{"n1|relates_to|n2"}, view.EdgeKeys())
	})

	t.Run("requires existing endpoints", func(t *testing.T) {
		_, err := svc.AddEdge(ctx, "g1", "n1", "supports", "ghost")
		assert.ErrorIs(t, err, graphstore.ErrNodeNotFound)
	})

	t.Run("re-adding an edge is idempotent", func(t *testing.T) {
		first, err := svc.AddEdge(ctx, "g1", "n1", "supports", "n2")
		require.NoError(t, err)
		second, err := svc.AddEdge(ctx, "g1", "n1", "supports", "n2")
		require.NoError(t, err)
		assert.Equal(t, first.Key(), second.Key())
		assert.Equal(t, first.OnBranches, second.OnBranches)
	})
}

// TestService_GraphIsolation covers the isolation guarantee: operations
// scoped to one graph never see another graph's entities, even when node
// ids collide.
func TestService_GraphIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// Two graphs with identical node ids and layouts.
	seedChain(t, svc, "g1", "n1", "n2", "n3")
	seedChain(t, svc, "g2", "n1", "n2", "n3")

	_, err := svc.ForkFromNode(ctx, &datatypes.ForkRequest{
		GraphID: "g1", BranchID: "feature", SourceNodeID: "n2", Depth: 1,
	})
	require.NoError(t, err)

	t.Run("views never leak across graphs", func(t *testing.T) {
		view, err := svc.GetBranchGraph(ctx, "g1", "feature")
		require.NoError(t, err)
		for _, n := range view.Nodes {
			assert.Equal(t, "g1", n.GraphID)
		}
		for _, e := range view.Edges {
			assert.Equal(t, "g1", e.GraphID)
		}
	})

	t.Run("fork in one graph does not tag the twin", func(t *testing.T) {
		_, err := svc.GetBranchGraph(ctx, "g2", "feature")
		assert.ErrorIs(t, err, graphstore.ErrBranchNotFound)

		view, err := svc.GetBranchGraph(ctx, "g2", datatypes.DefaultBranchName)
		require.NoError(t, err)
		for _, n := range view.Nodes {
			assert.Equal(t, []string{datatypes.DefaultBranchName}, n.OnBranches)
		}
	})

	t.Run("branch listings are per graph", func(t *testing.T) {
		b1, err := svc.ListBranches(ctx, "g1")
		require.NoError(t, err)
		b2, err := svc.ListBranches(ctx, "g2")
		require.NoError(t, err)
		assert.Len(t, b1, 2)
		assert.Len(t, b2, 1)
	})
}

// TestService_EndToEnd walks the documented usage sequence: create a
// space, ingest a small claim graph, fork a study branch, read it back,
// and diff it against main.
func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	space, err := svc.CreateGraphSpace(ctx, &datatypes.GraphSpace{
		TenantID: "student-42",
		Name:     "photosynthesis",
	})
	require.NoError(t, err)
	g := space.GraphID

	// claim graph: light -> chlorophyll -> glucose, plus an aside.
	for _, id := range []string{"light", "chlorophyll", "glucose", "starch"} {
		_, err := svc.AddNode(ctx, g, id, map[string]any{"label": id})
		require.NoError(t, err)
	}
	for _, e := range [][3]string{
		{"light", "excites", "chlorophyll"},
		{"chlorophyll", "produces", "glucose"},
		{"glucose", "stored_as", "starch"},
	} {
		_, err := svc.AddEdge(ctx, g, e[0], e[1], e[2])
		require.NoError(t, err)
	}

	branch, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{
		GraphID: g, Name: "exam-prep",
	})
	require.NoError(t, err)

	result, err := svc.ForkFromNode(ctx, &datatypes.ForkRequest{
		GraphID: g, BranchID: branch.BranchID, SourceNodeID: "chlorophyll", Depth: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.NodesTagged)
	assert.Equal(t, 2, result.EdgesTagged)

	view, err := svc.GetBranchGraph(ctx, g, branch.BranchID)
	require.NoError(t, err)
	assert.Equal(t, []string{"chlorophyll", "glucose", "light"}, view.NodeIDs())

	diff, err := svc.CompareBranches(ctx, &datatypes.CompareRequest{
		GraphID: g, BranchA: branch.BranchID, BranchB: datatypes.DefaultBranchName,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"starch"}, diff.NodeIDsOnlyInB)
	assert.Equal(t, []string{"glucose|stored_as|starch"}, diff.EdgesOnlyInB)

	// Shared content: a property edit shows up on every branch.
	_, err = svc.AddNode(ctx, g, "glucose", map[string]any{"label": "glucose", "formula": "C6H12O6"})
	require.NoError(t, err)

	onMain, err := svc.GetBranchGraph(ctx, g, datatypes.DefaultBranchName)
	require.NoError(t, err)
	onBranch, err := svc.GetBranchGraph(ctx, g, branch.BranchID)
	require.NoError(t, err)

	assert.Equal(t, "C6H12O6", findNode(t, onMain, "glucose").Properties["formula"])
	assert.Equal(t, "C6H12O6", findNode(t, onBranch, "glucose").Properties["formula"])
}

func findNode(t *testing.T, bg *datatypes.BranchGraph, nodeID string) *datatypes.Node {
	t.Helper()
	for _, n := range bg.Nodes {
		if n.NodeID == nodeID {
			return n
		}
	}
	t.Fatalf("node %q not in view", nodeID)
	return nil
}
