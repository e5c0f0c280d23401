// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultBranchName is the branch every GraphSpace starts with.
	// Nodes and edges are tagged onto it at creation time.
	DefaultBranchName = "main"

	// MinForkDepth and MaxForkDepth bound neighborhood expansion during a
	// fork. Out-of-range depths are silently clamped, not rejected: the cap
	// exists to bound traversal cost, and callers passing a large depth
	// mean "as much as you will give me".
	MinForkDepth = 0
	MaxForkDepth = 6
)

// Validation sentinel errors.
var (
	ErrEmptyGraphID   = errors.New("graph_id must not be empty")
	ErrEmptyBranchID  = errors.New("branch_id must not be empty")
	ErrEmptyTenantID  = errors.New("tenant_id must not be empty")
	ErrEmptyNodeID    = errors.New("node_id must not be empty")
	ErrEmptyPredicate = errors.New("predicate must not be empty")
	ErrEmptyName      = errors.New("name must not be empty")
	ErrGraphMismatch  = errors.New("entity graph_id does not match the requested graph")
)

// =============================================================================
// GraphSpace
// =============================================================================

// GraphSpace is the tenant-scoped container for one knowledge graph.
//
// Every Branch, Node, and Edge belongs to exactly one GraphSpace, keyed by
// GraphID. Tenant resolution happens upstream; this service only guarantees
// that everything it touches shares the caller-supplied GraphID.
type GraphSpace struct {
	GraphID   string    `json:"graph_id" validate:"required"`
	TenantID  string    `json:"tenant_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required fields.
func (g *GraphSpace) Validate() error {
	if g.GraphID == "" {
		return ErrEmptyGraphID
	}
	if g.TenantID == "" {
		return ErrEmptyTenantID
	}
	if g.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// =============================================================================
// Node
// =============================================================================

// Node is a shared graph entity. NodeID is unique within its GraphSpace.
//
// Properties hold the entity content (claim text, source references, and so
// on; opaque to this service). OnBranches is the branch membership set:
// sorted, duplicate-free, and append-only.
type Node struct {
	NodeID     string         `json:"node_id" validate:"required"`
	GraphID    string         `json:"graph_id" validate:"required"`
	Properties map[string]any `json:"properties,omitempty"`
	OnBranches []string       `json:"on_branches"`
}

// Validate checks required fields.
func (n *Node) Validate() error {
	if n.NodeID == "" {
		return ErrEmptyNodeID
	}
	if n.GraphID == "" {
		return ErrEmptyGraphID
	}
	return nil
}

// OnBranch reports whether the node is visible on the given branch.
func (n *Node) OnBranch(branchID string) bool {
	return slices.Contains(n.OnBranches, branchID)
}

// AddBranch adds branchID to the membership set. Returns true if the set
// changed, false if the node was already on the branch. Membership stays
// sorted so serialized output is deterministic.
func (n *Node) AddBranch(branchID string) bool {
	idx, found := slices.BinarySearch(n.OnBranches, branchID)
	if found {
		return false
	}
	n.OnBranches = slices.Insert(n.OnBranches, idx, branchID)
	return true
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed, predicate-labeled relationship between two nodes in
// the same GraphSpace. Identity is (GraphID, SourceID, Predicate, TargetID);
// there is no separate edge id. Membership semantics match Node.
//
// GraphID is mandatory at creation. The store derives it from the source
// node and rejects edges without one, so no read path ever has to repair a
// missing graph scope.
type Edge struct {
	SourceID   string   `json:"source_id" validate:"required"`
	TargetID   string   `json:"target_id" validate:"required"`
	Predicate  string   `json:"predicate" validate:"required"`
	GraphID    string   `json:"graph_id" validate:"required"`
	OnBranches []string `json:"on_branches"`
}

// Validate checks required fields.
func (e *Edge) Validate() error {
	if e.SourceID == "" || e.TargetID == "" {
		return ErrEmptyNodeID
	}
	if e.Predicate == "" {
		return ErrEmptyPredicate
	}
	if e.GraphID == "" {
		return ErrEmptyGraphID
	}
	return nil
}

// Key returns the canonical identity string for the edge within its graph,
// used for deduplication, diffing, and sorted output.
func (e *Edge) Key() string {
	return EdgeKey(e.SourceID, e.Predicate, e.TargetID)
}

// EdgeKey builds the canonical edge identity string.
func EdgeKey(sourceID, predicate, targetID string) string {
	return fmt.Sprintf("%s|%s|%s", sourceID, predicate, targetID)
}

// OnBranch reports whether the edge is visible on the given branch.
func (e *Edge) OnBranch(branchID string) bool {
	return slices.Contains(e.OnBranches, branchID)
}

// AddBranch adds branchID to the membership set. Returns true if the set
// changed.
func (e *Edge) AddBranch(branchID string) bool {
	idx, found := slices.BinarySearch(e.OnBranches, branchID)
	if found {
		return false
	}
	e.OnBranches = slices.Insert(e.OnBranches, idx, branchID)
	return true
}

// Touches reports whether the edge has nodeID as either endpoint.
func (e *Edge) Touches(nodeID string) bool {
	return e.SourceID == nodeID || e.TargetID == nodeID
}

// OtherEnd returns the endpoint opposite to nodeID. Traversal treats edges
// as undirected, so the caller does not care about direction here. Returns
// "" if nodeID is not an endpoint.
func (e *Edge) OtherEnd(nodeID string) string {
	switch nodeID {
	case e.SourceID:
		return e.TargetID
	case e.TargetID:
		return e.SourceID
	default:
		return ""
	}
}

// ClampForkDepth clamps depth to [MinForkDepth, MaxForkDepth].
func ClampForkDepth(depth int) int {
	if depth < MinForkDepth {
		return MinForkDepth
	}
	if depth > MaxForkDepth {
		return MaxForkDepth
	}
	return depth
}
