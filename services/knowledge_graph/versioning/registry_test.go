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

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

func TestRegistry_CreateBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a branch with a generated id", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		branch, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{
			GraphID: "g1",
			Name:    "feature",
		})
		require.NoError(t, err)

		assert.Equal(t, "feature", branch.Name)
		assert.Equal(t, "g1", branch.GraphID)
		_, err = uuid.Parse(branch.BranchID)
		assert.NoError(t, err, "branch id should be a uuid")
		assert.Empty(t, branch.SourceNodeID, "new branch has no fork provenance")
	})

	t.Run("fails for a missing graph space", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{
			GraphID: "ghost",
			Name:    "feature",
		})
		assert.ErrorIs(t, err, graphstore.ErrGraphSpaceNotFound)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		_, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{
			GraphID: "g1",
			Name:    "bad name with spaces",
		})
		assert.Error(t, err)
	})
}

func TestRegistry_ListBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("ordered by creation time ascending", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		for _, name := range []string{"first", "second", "third"} {
			_, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{GraphID: "g1", Name: name})
			require.NoError(t, err)
		}

		branches, err := svc.ListBranches(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, branches, 4) // default "main" plus three

		names := make([]string, 0, len(branches))
		for _, b := range branches {
			names = append(names, b.Name)
		}
		assert.Equal(t, []string{"main", "first", "second", "third"}, names)
	})

	t.Run("fails for a missing graph space", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.ListBranches(ctx, "ghost")
		assert.ErrorIs(t, err, graphstore.ErrGraphSpaceNotFound)
	})
}

func TestRegistry_EnsureBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an absent branch", func(t *testing.T) {
		svc, store := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		branch, err := svc.registry.EnsureBranch(ctx, "g1", "feature-x")
		require.NoError(t, err)
		assert.Equal(t, "feature-x", branch.BranchID)
		assert.Equal(t, "feature-x", branch.Name)

		stored, err := store.GetBranch(ctx, "g1", "feature-x")
		require.NoError(t, err)
		assert.Equal(t, branch.BranchID, stored.BranchID)
	})

	t.Run("is a no-op for an existing branch", func(t *testing.T) {
		svc, _ := newTestService(t)
		seedChain(t, svc, "g1", "n1")

		first, err := svc.registry.EnsureBranch(ctx, "g1", "feature-x")
		require.NoError(t, err)

		second, err := svc.registry.EnsureBranch(ctx, "g1", "feature-x")
		require.NoError(t, err)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
	})
}
