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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

const commandTimeout = 30 * time.Second

// runSpaceCreate creates a graph space and its default branch.
func runSpaceCreate(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	graphID := args[0]
	name := spaceName
	if name == "" {
		name = graphID
	}

	space, err := svc.CreateGraphSpace(ctx, &datatypes.GraphSpace{
		GraphID:  graphID,
		TenantID: tenantID,
		Name:     name,
	})
	if err != nil {
		outputError("creating graph space", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(space)
		return
	}
	fmt.Printf("Created graph space %s (tenant %s) with branch %q\n",
		space.GraphID, space.TenantID, datatypes.DefaultBranchName)
}

// runNodeAdd upserts a node into a graph space.
func runNodeAdd(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	var props map[string]any
	if nodeProps != "" {
		if err := json.Unmarshal([]byte(nodeProps), &props); err != nil {
			outputError("parsing --props", err)
			os.Exit(1)
		}
	}

	node, err := svc.AddNode(ctx, args[0], args[1], props)
	if err != nil {
		outputError("adding node", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(node)
		return
	}
	fmt.Printf("Added node %s to %s (branches: %v)\n", node.NodeID, node.GraphID, node.OnBranches)
}

// runEdgeAdd creates a directed edge between two existing nodes.
func runEdgeAdd(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc, cleanup, err := newService(ctx)
	if err != nil {
		outputError("initializing backend", err)
		os.Exit(1)
	}
	defer cleanup()

	edge, err := svc.AddEdge(ctx, args[0], args[1], args[2], args[3])
	if err != nil {
		outputError("adding edge", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(edge)
		return
	}
	fmt.Printf("Added edge %s --%s--> %s in %s\n",
		edge.SourceID, edge.Predicate, edge.TargetID, edge.GraphID)
}
