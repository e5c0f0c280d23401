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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	jsonOutput bool   // machine-readable output for scripting
	tenantID   string // tenant owning a new graph space
	spaceName  string // human-readable name for a new graph space
	nodeProps  string // JSON object of node properties
	forkDepth  int    // undirected hop bound for fork

	rootCmd = &cobra.Command{
		Use:   "kgraph",
		Short: "A cli to manage branch-scoped knowledge graphs",
		Long: `kgraph manages versioned knowledge graphs: isolated graph spaces,
				shared nodes and edges tagged onto branches, bounded forks from
				a source node, and structural diffs between branches.`,
	}

	// --- Graph Spaces ---
	spaceCmd = &cobra.Command{
		Use:   "space",
		Short: "Manage graph spaces (isolated graphs)",
	}
	spaceCreateCmd = &cobra.Command{
		Use:   "create [graph-id]",
		Short: "Create a graph space with its default 'main' branch",
		Args:  cobra.ExactArgs(1),
		Run:   runSpaceCreate,
	}

	// --- Ingestion ---
	nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Manage nodes within a graph space",
	}
	nodeAddCmd = &cobra.Command{
		Use:   "add [graph-id] [node-id]",
		Short: "Add or update a node; new nodes land on the main branch",
		Args:  cobra.ExactArgs(2),
		Run:   runNodeAdd,
	}

	edgeCmd = &cobra.Command{
		Use:   "edge",
		Short: "Manage edges within a graph space",
	}
	edgeAddCmd = &cobra.Command{
		Use:   "add [graph-id] [source] [predicate] [target]",
		Short: "Add a directed edge between two existing nodes",
		Args:  cobra.ExactArgs(4),
		Run:   runEdgeAdd,
	}

	// --- Branching ---
	branchCmd = &cobra.Command{
		Use:   "branch",
		Short: "Manage branches of a graph space",
	}
	branchCreateCmd = &cobra.Command{
		Use:   "create [graph-id] [name]",
		Short: "Create an empty branch",
		Args:  cobra.ExactArgs(2),
		Run:   runBranchCreate,
	}
	branchListCmd = &cobra.Command{
		Use:   "list [graph-id]",
		Short: "List branches of a graph space, oldest first",
		Args:  cobra.ExactArgs(1),
		Run:   runBranchList,
	}
	branchShowCmd = &cobra.Command{
		Use:   "show [graph-id] [branch-id]",
		Short: "Show the nodes and edges visible on a branch",
		Args:  cobra.ExactArgs(2),
		Run:   runBranchShow,
	}

	forkCmd = &cobra.Command{
		Use:   "fork [graph-id] [branch-id] [source-node-id]",
		Short: "Tag the bounded neighborhood of a node onto a branch",
		Args:  cobra.ExactArgs(3),
		Run:   runFork,
	}

	diffCmd = &cobra.Command{
		Use:   "diff [graph-id] [branch-a] [branch-b]",
		Short: "Compare the structure visible on two branches",
		Args:  cobra.ExactArgs(3),
		Run:   runDiff,
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit results as JSON for scripting")

	rootCmd.AddCommand(spaceCmd)
	spaceCmd.AddCommand(spaceCreateCmd)
	spaceCreateCmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant that owns the graph space (required)")
	spaceCreateCmd.Flags().StringVar(&spaceName, "name", "", "Human-readable name (defaults to the graph id)")
	spaceCreateCmd.MarkFlagRequired("tenant")

	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeAddCmd)
	nodeAddCmd.Flags().StringVar(&nodeProps, "props", "", `Node properties as a JSON object, e.g. '{"label":"Photosynthesis"}'`)

	rootCmd.AddCommand(edgeCmd)
	edgeCmd.AddCommand(edgeAddCmd)

	rootCmd.AddCommand(branchCmd)
	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchShowCmd)

	rootCmd.AddCommand(forkCmd)
	forkCmd.Flags().IntVar(&forkDepth, "depth", 2,
		"Undirected hop bound around the source node (clamped to [0, 6])")

	rootCmd.AddCommand(diffCmd)
}
