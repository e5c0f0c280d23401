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
	"encoding/json"
	"fmt"
	"os"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

// outputError reports a failure in the requested output mode.
func outputError(msg string, err error) {
	if jsonOutput {
		result := map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// outputJSON outputs any result as indented JSON.
func outputJSON(result interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputBranchesText outputs a branch listing as text.
func outputBranchesText(graphID string, branches []*datatypes.Branch) {
	fmt.Printf("Branches of %s:\n\n", graphID)
	if len(branches) == 0 {
		fmt.Println("  No branches found.")
		return
	}
	for _, b := range branches {
		fmt.Printf("  %-24s %-20s created %s", b.BranchID, b.Name,
			b.CreatedAt.Format("2006-01-02 15:04:05"))
		if b.SourceNodeID != "" {
			fmt.Printf("  (forked from %s)", b.SourceNodeID)
		}
		fmt.Println()
	}
	fmt.Printf("\nFound %d branches\n", len(branches))
}

// outputBranchGraphText outputs a branch view as text.
func outputBranchGraphText(bg *datatypes.BranchGraph) {
	fmt.Printf("Branch %s of %s:\n\n", bg.BranchID, bg.GraphID)

	fmt.Printf("Nodes (%d):\n", len(bg.Nodes))
	for _, n := range bg.Nodes {
		fmt.Printf("  %s\n", n.NodeID)
	}

	fmt.Printf("\nEdges (%d):\n", len(bg.Edges))
	for _, e := range bg.Edges {
		fmt.Printf("  %s --%s--> %s\n", e.SourceID, e.Predicate, e.TargetID)
	}
}

// outputForkText outputs a fork result as text.
func outputForkText(result *datatypes.ForkResult) {
	fmt.Printf("Forked branch %s from node %s (depth %d)\n\n",
		result.BranchID, result.SourceNodeID, result.Depth)
	fmt.Printf("  Nodes tagged: %d (%d newly added)\n", result.NodesTagged, result.NodesAdded)
	fmt.Printf("  Edges tagged: %d (%d newly added)\n", result.EdgesTagged, result.EdgesAdded)
}

// outputDiffText outputs a branch comparison as text.
func outputDiffText(diff *datatypes.BranchDiff) {
	fmt.Printf("Comparing %s and %s in %s:\n\n", diff.BranchA, diff.BranchB, diff.GraphID)

	if diff.Empty() {
		fmt.Println("  Branches are structurally identical.")
		return
	}

	printSection := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Printf("%s:\n", label)
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
		fmt.Println()
	}
	printSection("Nodes only in "+diff.BranchA, diff.NodeIDsOnlyInA)
	printSection("Nodes only in "+diff.BranchB, diff.NodeIDsOnlyInB)
	printSection("Edges only in "+diff.BranchA, diff.EdgesOnlyInA)
	printSection("Edges only in "+diff.BranchB, diff.EdgesOnlyInB)
}
