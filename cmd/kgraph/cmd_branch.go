// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

// runBranchCreate creates an empty branch on a graph space.
func runBranchCreate(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	branch, err := svc.CreateBranch(ctx, &datatypes.CreateBranchRequest{
		GraphID: args[0],
		Name:    args[1],
	})
	if err != nil {
		outputError("creating branch", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(branch)
		return
	}
	fmt.Printf("Created branch %s (%s) on %s\n", branch.BranchID, branch.Name, branch.GraphID)
}

// runBranchList lists the branches of a graph space.
func runBranchList(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	branches, err := svc.ListBranches(ctx, args[0])
	if err != nil {
		outputError("listing branches", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(branches)
		return
	}
	outputBranchesText(args[0], branches)
}

// runBranchShow renders the graph visible on a branch.
func runBranchShow(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	bg, err := svc.GetBranchGraph(ctx, args[0], args[1])
	if err != nil {
		outputError("reading branch graph", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(bg)
		return
	}
	outputBranchGraphText(bg)
}

// runFork tags the bounded neighborhood of a node onto a branch.
func runFork(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	result, err := svc.ForkFromNode(ctx, &datatypes.ForkRequest{
		GraphID:      args[0],
		BranchID:     args[1],
		SourceNodeID: args[2],
		Depth:        forkDepth,
	})
	if err != nil {
		outputError("forking branch", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(result)
		return
	}
	outputForkText(result)
}

// runDiff compares the structure visible on two branches.
func runDiff(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	diff, err := svc.CompareBranches(ctx, &datatypes.CompareRequest{
		GraphID: args[0],
		BranchA: args[1],
		BranchB: args[2],
	})
	if err != nil {
		outputError("comparing branches", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(diff)
		return
	}
	outputDiffText(diff)
}
