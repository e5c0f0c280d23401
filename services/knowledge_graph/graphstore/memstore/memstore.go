// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memstore provides an in-memory graphstore.Store.
//
// It backs unit tests and the CLI's local mode. Entities are deep-copied on
// both read and write so callers can mutate what they hold without racing
// the store's internal state.
package memstore

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

// Store is an in-memory implementation of graphstore.Store.
//
// A single RWMutex guards all state. That is deliberate: this backend
// exists for tests and local development, not for scale.
type Store struct {
	mu sync.RWMutex

	// All maps are keyed by graphID first; edges use Edge.Key() as the
	// inner key.
	spaces   map[string]*datatypes.GraphSpace
	nodes    map[string]map[string]*datatypes.Node
	edges    map[string]map[string]*datatypes.Edge
	branches map[string]map[string]*datatypes.Branch
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		spaces:   make(map[string]*datatypes.GraphSpace),
		nodes:    make(map[string]map[string]*datatypes.Node),
		edges:    make(map[string]map[string]*datatypes.Edge),
		branches: make(map[string]map[string]*datatypes.Branch),
	}
}

var _ graphstore.Store = (*Store)(nil)

// -----------------------------------------------------------------------------
// GraphSpaces
// -----------------------------------------------------------------------------

// CreateGraphSpace registers a new space. Fails with ErrGraphSpaceExists on
// duplicate GraphID.
func (s *Store) CreateGraphSpace(_ context.Context, space *datatypes.GraphSpace) error {
	if err := space.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spaces[space.GraphID]; ok {
		return graphstore.ErrGraphSpaceExists
	}

	cp := *space
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.spaces[space.GraphID] = &cp
	s.nodes[space.GraphID] = make(map[string]*datatypes.Node)
	s.edges[space.GraphID] = make(map[string]*datatypes.Edge)
	s.branches[space.GraphID] = make(map[string]*datatypes.Branch)
	return nil
}

// GetGraphSpace returns the space or ErrGraphSpaceNotFound.
func (s *Store) GetGraphSpace(_ context.Context, graphID string) (*datatypes.GraphSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	space, ok := s.spaces[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}
	cp := *space
	return &cp, nil
}

// -----------------------------------------------------------------------------
// Nodes
// -----------------------------------------------------------------------------

// UpsertNode writes a node, replacing any prior version.
func (s *Store) UpsertNode(_ context.Context, node *datatypes.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ok := s.nodes[node.GraphID]
	if !ok {
		return graphstore.ErrGraphSpaceNotFound
	}
	graph[node.NodeID] = copyNode(node)
	return nil
}

// GetNode returns the node or a NodeNotFoundError.
func (s *Store) GetNode(_ context.Context, graphID, nodeID string) (*datatypes.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.nodes[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}
	node, ok := graph[nodeID]
	if !ok {
		return nil, &graphstore.NodeNotFoundError{GraphID: graphID, NodeID: nodeID}
	}
	return copyNode(node), nil
}

// -----------------------------------------------------------------------------
// Edges
// -----------------------------------------------------------------------------

// CreateEdge writes a new edge. Fails with ErrEdgeExists on duplicate
// identity.
func (s *Store) CreateEdge(_ context.Context, edge *datatypes.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ok := s.edges[edge.GraphID]
	if !ok {
		return graphstore.ErrGraphSpaceNotFound
	}
	if _, ok := graph[edge.Key()]; ok {
		return graphstore.ErrEdgeExists
	}
	graph[edge.Key()] = copyEdge(edge)
	return nil
}

// UpsertEdge writes an edge, replacing any prior version.
func (s *Store) UpsertEdge(_ context.Context, edge *datatypes.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ok := s.edges[edge.GraphID]
	if !ok {
		return graphstore.ErrGraphSpaceNotFound
	}
	graph[edge.Key()] = copyEdge(edge)
	return nil
}

// GetEdge returns the edge or ErrEdgeNotFound.
func (s *Store) GetEdge(_ context.Context, graphID, sourceID, predicate, targetID string) (*datatypes.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.edges[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}
	edge, ok := graph[datatypes.EdgeKey(sourceID, predicate, targetID)]
	if !ok {
		return nil, graphstore.ErrEdgeNotFound
	}
	return copyEdge(edge), nil
}

// -----------------------------------------------------------------------------
// Branches
// -----------------------------------------------------------------------------

// CreateBranch writes a new branch row. Fails with ErrBranchExists on
// duplicate BranchID.
func (s *Store) CreateBranch(_ context.Context, branch *datatypes.Branch) error {
	if err := branch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ok := s.branches[branch.GraphID]
	if !ok {
		return graphstore.ErrGraphSpaceNotFound
	}
	if _, ok := graph[branch.BranchID]; ok {
		return graphstore.ErrBranchExists
	}
	cp := *branch
	graph[branch.BranchID] = &cp
	return nil
}

// GetBranch returns the branch row or a BranchNotFoundError.
func (s *Store) GetBranch(_ context.Context, graphID, branchID string) (*datatypes.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.branches[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}
	branch, ok := graph[branchID]
	if !ok {
		return nil, &graphstore.BranchNotFoundError{GraphID: graphID, BranchID: branchID}
	}
	cp := *branch
	return &cp, nil
}

// UpdateBranch overwrites an existing branch row.
func (s *Store) UpdateBranch(_ context.Context, branch *datatypes.Branch) error {
	if err := branch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph, ok := s.branches[branch.GraphID]
	if !ok {
		return graphstore.ErrGraphSpaceNotFound
	}
	if _, ok := graph[branch.BranchID]; !ok {
		return &graphstore.BranchNotFoundError{GraphID: branch.GraphID, BranchID: branch.BranchID}
	}
	cp := *branch
	graph[branch.BranchID] = &cp
	return nil
}

// ListBranches returns all branch rows ordered by CreatedAt ascending, with
// BranchID as the tie-breaker so the order is stable.
func (s *Store) ListBranches(_ context.Context, graphID string) ([]*datatypes.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.branches[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}

	out := make([]*datatypes.Branch, 0, len(graph))
	for _, branch := range graph {
		cp := *branch
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *datatypes.Branch) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BranchID, b.BranchID)
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Branch-filtered reads
// -----------------------------------------------------------------------------

// QueryNodesByGraph returns nodes on the branch, ordered by NodeID.
func (s *Store) QueryNodesByGraph(_ context.Context, graphID, branchID string) ([]*datatypes.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.nodes[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}

	out := make([]*datatypes.Node, 0)
	for _, node := range graph {
		if node.OnBranch(branchID) {
			out = append(out, copyNode(node))
		}
	}
	slices.SortFunc(out, func(a, b *datatypes.Node) int {
		return cmp.Compare(a.NodeID, b.NodeID)
	})
	return out, nil
}

// QueryEdgesByGraph returns edges on the branch, ordered by key. Endpoint
// visibility is not checked here.
func (s *Store) QueryEdgesByGraph(_ context.Context, graphID, branchID string) ([]*datatypes.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.edges[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}

	out := make([]*datatypes.Edge, 0)
	for _, edge := range graph {
		if edge.OnBranch(branchID) {
			out = append(out, copyEdge(edge))
		}
	}
	slices.SortFunc(out, func(a, b *datatypes.Edge) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Traversal
// -----------------------------------------------------------------------------

// EdgesTouching returns edges with either endpoint in nodeIDs. Satisfies
// graphstore.EdgeLister for the shared frontier BFS.
func (s *Store) EdgesTouching(_ context.Context, graphID string, nodeIDs []string) ([]*datatypes.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.edges[graphID]
	if !ok {
		return nil, graphstore.ErrGraphSpaceNotFound
	}

	ids := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		ids[id] = true
	}

	var out []*datatypes.Edge
	for _, edge := range graph {
		if ids[edge.SourceID] || ids[edge.TargetID] {
			out = append(out, copyEdge(edge))
		}
	}
	return out, nil
}

// BoundedNeighborhood runs the shared frontier BFS over this store.
func (s *Store) BoundedNeighborhood(ctx context.Context, graphID, startNodeID string, maxDepth int) (*graphstore.Neighborhood, error) {
	// Validates both the graph scope and the start node.
	if _, err := s.GetNode(ctx, graphID, startNodeID); err != nil {
		return nil, err
	}

	nodeIDs, edges, err := graphstore.ExpandFrontier(ctx, s, graphID, startNodeID, maxDepth)
	if err != nil {
		return nil, err
	}

	nodes := make([]*datatypes.Node, 0, len(nodeIDs))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range nodeIDs {
		if node, ok := s.nodes[graphID][id]; ok {
			nodes = append(nodes, copyNode(node))
		}
	}
	return &graphstore.Neighborhood{Nodes: nodes, Edges: edges}, nil
}

// -----------------------------------------------------------------------------
// Copy helpers
// -----------------------------------------------------------------------------

func copyNode(n *datatypes.Node) *datatypes.Node {
	cp := *n
	cp.Properties = maps.Clone(n.Properties)
	cp.OnBranches = slices.Clone(n.OnBranches)
	return &cp
}

func copyEdge(e *datatypes.Edge) *datatypes.Edge {
	cp := *e
	cp.OnBranches = slices.Clone(e.OnBranches)
	return &cp
}
