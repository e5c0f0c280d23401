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

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

// Differ compares two branches of the same graph structurally.
type Differ struct {
	view *View
}

// NewDiffer creates a Differ over the given view.
func NewDiffer(view *View) *Differ {
	return &Differ{view: view}
}

// CompareBranches computes the membership-only diff between two branches.
//
// # Description
//
// Materializes both branch views (concurrently, since they are independent
// full reads, O(|V|+|E|) each) and takes set differences of node ids and
// edge keys in both directions. Because entity content is shared across
// branches, membership is the only thing that can differ; there is no
// content diff to compute. Reads have no snapshot isolation: comparing
// while a fork is in flight can observe the fork half-applied.
//
// Output slices are sorted and never nil, so results marshal
// deterministically.
func (d *Differ) CompareBranches(ctx context.Context, req *datatypes.CompareRequest) (*datatypes.BranchDiff, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating compare request: %w", err)
	}

	var viewA, viewB *datatypes.BranchGraph
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		viewA, err = d.view.BranchGraph(gctx, req.GraphID, req.BranchA)
		return err
	})
	g.Go(func() error {
		var err error
		viewB, err = d.view.BranchGraph(gctx, req.GraphID, req.BranchB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diff := &datatypes.BranchDiff{
		GraphID: req.GraphID,
		BranchA: req.BranchA,
		BranchB: req.BranchB,
	}
	diff.NodeIDsOnlyInA, diff.NodeIDsOnlyInB = sortedSetDiff(viewA.NodeIDs(), viewB.NodeIDs())
	diff.EdgesOnlyInA, diff.EdgesOnlyInB = sortedSetDiff(viewA.EdgeKeys(), viewB.EdgeKeys())
	return diff, nil
}

// sortedSetDiff takes two ascending, duplicate-free slices and returns the
// elements unique to each, via a single merge walk. Results are never nil.
func sortedSetDiff(a, b []string) (onlyA, onlyB []string) {
	onlyA = []string{}
	onlyB = []string{}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return onlyA, onlyB
}
