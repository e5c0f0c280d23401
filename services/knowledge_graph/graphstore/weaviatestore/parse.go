// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package weaviatestore

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

func spaceFields() []graphql.Field {
	return []graphql.Field{
		{Name: "graphId"},
		{Name: "tenantId"},
		{Name: "name"},
		{Name: "createdAt"},
	}
}

func nodeFields() []graphql.Field {
	return []graphql.Field{
		{Name: "nodeId"},
		{Name: "graphId"},
		{Name: "propertiesJson"},
		{Name: "onBranches"},
	}
}

func edgeFields() []graphql.Field {
	return []graphql.Field{
		{Name: "sourceId"},
		{Name: "targetId"},
		{Name: "predicate"},
		{Name: "graphId"},
		{Name: "onBranches"},
	}
}

func branchFields() []graphql.Field {
	return []graphql.Field{
		{Name: "branchId"},
		{Name: "graphId"},
		{Name: "name"},
		{Name: "createdAt"},
		{Name: "updatedAt"},
		{Name: "sourceNodeId"},
	}
}

func parseNode(obj map[string]interface{}) (*datatypes.Node, error) {
	node := &datatypes.Node{
		NodeID:     getString(obj, "nodeId"),
		GraphID:    getString(obj, "graphId"),
		OnBranches: getStrings(obj, "onBranches"),
	}
	if raw := getString(obj, "propertiesJson"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &node.Properties); err != nil {
			return nil, fmt.Errorf("decode properties of node %q: %w", node.NodeID, err)
		}
	}
	return node, nil
}

func parseEdge(obj map[string]interface{}) *datatypes.Edge {
	return &datatypes.Edge{
		SourceID:   getString(obj, "sourceId"),
		TargetID:   getString(obj, "targetId"),
		Predicate:  getString(obj, "predicate"),
		GraphID:    getString(obj, "graphId"),
		OnBranches: getStrings(obj, "onBranches"),
	}
}

func parseBranch(obj map[string]interface{}) *datatypes.Branch {
	return &datatypes.Branch{
		BranchID:     getString(obj, "branchId"),
		GraphID:      getString(obj, "graphId"),
		Name:         getString(obj, "name"),
		CreatedAt:    getTime(obj, "createdAt"),
		UpdatedAt:    getTime(obj, "updatedAt"),
		SourceNodeID: getString(obj, "sourceNodeId"),
	}
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getStrings safely extracts a string slice from a map.
func getStrings(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// getTime parses an RFC3339 timestamp field. Zero time on absence or parse
// failure.
func getTime(m map[string]interface{}, key string) time.Time {
	raw := getString(m, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func sortNodes(nodes []*datatypes.Node) {
	slices.SortFunc(nodes, func(a, b *datatypes.Node) int {
		return cmp.Compare(a.NodeID, b.NodeID)
	})
}

func sortEdges(edges []*datatypes.Edge) {
	slices.SortFunc(edges, func(a, b *datatypes.Edge) int {
		return cmp.Compare(a.Key(), b.Key())
	})
}

func sortBranches(branches []*datatypes.Branch) {
	slices.SortFunc(branches, func(a, b *datatypes.Branch) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BranchID, b.BranchID)
	})
}
