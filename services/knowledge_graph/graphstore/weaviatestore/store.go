// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package weaviatestore provides a Weaviate-backed graphstore.Store.
//
// It is the cold tier of the persistence model: the shared deployment
// backend, one Weaviate instance serving many tenants' graphs.
//
// Every object gets a deterministic Weaviate id derived from its logical
// identity (class namespace + graph-scoped key), so writes address objects
// directly and never need a lookup query first. Branch-filtered reads go
// through GraphQL with where filters on graphId and onBranches.
package weaviatestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

// maxQueryResults bounds every list query. Branch views beyond this size
// need pagination at the API layer first.
const maxQueryResults = 10000

// Namespace UUIDs for deterministic object ids, one per class.
var (
	spaceNamespace  = uuid.MustParse("6f1c2a52-8f0e-4b7d-9b6a-3c5d1e8a9f01")
	nodeNamespace   = uuid.MustParse("6f1c2a52-8f0e-4b7d-9b6a-3c5d1e8a9f02")
	edgeNamespace   = uuid.MustParse("6f1c2a52-8f0e-4b7d-9b6a-3c5d1e8a9f03")
	branchNamespace = uuid.MustParse("6f1c2a52-8f0e-4b7d-9b6a-3c5d1e8a9f04")
)

// objectID derives the Weaviate object id for a graph-scoped entity key.
func objectID(namespace uuid.UUID, graphID, key string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(namespace, []byte(graphID+"/"+key)).String())
}

// Store is a Weaviate-backed implementation of graphstore.Store.
//
// # Thread Safety
//
// Individual methods are safe for concurrent use. Compound operations
// (existence check then write) are not atomic; concurrent creates of the
// same entity may both succeed, which the deterministic object ids collapse
// into one object.
type Store struct {
	conn   *Conn
	logger *slog.Logger
}

var _ graphstore.Store = (*Store)(nil)

// New creates a Store over an established connection.
func New(conn *Conn, logger *slog.Logger) (*Store, error) {
	if conn == nil {
		return nil, errors.New("conn must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger}, nil
}

// -----------------------------------------------------------------------------
// GraphSpaces
// -----------------------------------------------------------------------------

// CreateGraphSpace registers a new space. Fails with ErrGraphSpaceExists on
// duplicate GraphID.
func (s *Store) CreateGraphSpace(ctx context.Context, space *datatypes.GraphSpace) error {
	if err := space.Validate(); err != nil {
		return err
	}

	_, err := s.GetGraphSpace(ctx, space.GraphID)
	if err == nil {
		return graphstore.ErrGraphSpaceExists
	}
	if !errors.Is(err, graphstore.ErrGraphSpaceNotFound) {
		return err
	}

	createdAt := space.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.createObject(ctx, GraphSpaceClassName, objectID(spaceNamespace, space.GraphID, ""), map[string]interface{}{
		"graphId":   space.GraphID,
		"tenantId":  space.TenantID,
		"name":      space.Name,
		"createdAt": createdAt.Format(time.RFC3339Nano),
	})
}

// GetGraphSpace returns the space or ErrGraphSpaceNotFound.
func (s *Store) GetGraphSpace(ctx context.Context, graphID string) (*datatypes.GraphSpace, error) {
	where := filters.Where().
		WithPath([]string{"graphId"}).
		WithOperator(filters.Equal).
		WithValueString(graphID)

	objects, err := s.query(ctx, GraphSpaceClassName, spaceFields(), where, 1)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, graphstore.ErrGraphSpaceNotFound
	}

	obj := objects[0]
	return &datatypes.GraphSpace{
		GraphID:   getString(obj, "graphId"),
		TenantID:  getString(obj, "tenantId"),
		Name:      getString(obj, "name"),
		CreatedAt: getTime(obj, "createdAt"),
	}, nil
}

// requireSpace fails with ErrGraphSpaceNotFound when the graph is absent.
func (s *Store) requireSpace(ctx context.Context, graphID string) error {
	_, err := s.GetGraphSpace(ctx, graphID)
	return err
}

// -----------------------------------------------------------------------------
// Nodes
// -----------------------------------------------------------------------------

// UpsertNode writes a node, replacing any prior version.
func (s *Store) UpsertNode(ctx context.Context, node *datatypes.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if err := s.requireSpace(ctx, node.GraphID); err != nil {
		return err
	}

	propsJSON, err := json.Marshal(node.Properties)
	if err != nil {
		return fmt.Errorf("marshal node properties: %w", err)
	}

	return s.putObject(ctx, NodeClassName, objectID(nodeNamespace, node.GraphID, node.NodeID), map[string]interface{}{
		"nodeId":         node.NodeID,
		"graphId":        node.GraphID,
		"propertiesJson": string(propsJSON),
		"onBranches":     node.OnBranches,
	})
}

// GetNode returns the node or a NodeNotFoundError.
func (s *Store) GetNode(ctx context.Context, graphID, nodeID string) (*datatypes.Node, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithPath([]string{"nodeId"}).
				WithOperator(filters.Equal).
				WithValueString(nodeID),
		})

	objects, err := s.query(ctx, NodeClassName, nodeFields(), where, 1)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, &graphstore.NodeNotFoundError{GraphID: graphID, NodeID: nodeID}
	}
	return parseNode(objects[0])
}

// -----------------------------------------------------------------------------
// Edges
// -----------------------------------------------------------------------------

// CreateEdge writes a new edge. Fails with ErrEdgeExists on duplicate
// identity.
func (s *Store) CreateEdge(ctx context.Context, edge *datatypes.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	_, err := s.GetEdge(ctx, edge.GraphID, edge.SourceID, edge.Predicate, edge.TargetID)
	if err == nil {
		return graphstore.ErrEdgeExists
	}
	if !errors.Is(err, graphstore.ErrEdgeNotFound) {
		return err
	}
	return s.createObject(ctx, EdgeClassName, objectID(edgeNamespace, edge.GraphID, edge.Key()), edgeProperties(edge))
}

// UpsertEdge writes an edge, replacing any prior version.
func (s *Store) UpsertEdge(ctx context.Context, edge *datatypes.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	if err := s.requireSpace(ctx, edge.GraphID); err != nil {
		return err
	}
	return s.putObject(ctx, EdgeClassName, objectID(edgeNamespace, edge.GraphID, edge.Key()), edgeProperties(edge))
}

// GetEdge returns the edge or ErrEdgeNotFound.
func (s *Store) GetEdge(ctx context.Context, graphID, sourceID, predicate, targetID string) (*datatypes.Edge, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithPath([]string{"sourceId"}).
				WithOperator(filters.Equal).
				WithValueString(sourceID),
			filters.Where().
				WithPath([]string{"predicate"}).
				WithOperator(filters.Equal).
				WithValueString(predicate),
			filters.Where().
				WithPath([]string{"targetId"}).
				WithOperator(filters.Equal).
				WithValueString(targetID),
		})

	objects, err := s.query(ctx, EdgeClassName, edgeFields(), where, 1)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, graphstore.ErrEdgeNotFound
	}
	return parseEdge(objects[0]), nil
}

func edgeProperties(edge *datatypes.Edge) map[string]interface{} {
	return map[string]interface{}{
		"sourceId":   edge.SourceID,
		"targetId":   edge.TargetID,
		"predicate":  edge.Predicate,
		"graphId":    edge.GraphID,
		"onBranches": edge.OnBranches,
	}
}

// -----------------------------------------------------------------------------
// Branches
// -----------------------------------------------------------------------------

// CreateBranch writes a new branch row. Fails with ErrBranchExists on
// duplicate BranchID.
func (s *Store) CreateBranch(ctx context.Context, branch *datatypes.Branch) error {
	if err := branch.Validate(); err != nil {
		return err
	}

	_, err := s.GetBranch(ctx, branch.GraphID, branch.BranchID)
	if err == nil {
		return graphstore.ErrBranchExists
	}
	if !errors.Is(err, graphstore.ErrBranchNotFound) {
		return err
	}
	return s.createObject(ctx, BranchClassName, objectID(branchNamespace, branch.GraphID, branch.BranchID), branchProperties(branch))
}

// GetBranch returns the branch row or a BranchNotFoundError.
func (s *Store) GetBranch(ctx context.Context, graphID, branchID string) (*datatypes.Branch, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithPath([]string{"branchId"}).
				WithOperator(filters.Equal).
				WithValueString(branchID),
		})

	objects, err := s.query(ctx, BranchClassName, branchFields(), where, 1)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, &graphstore.BranchNotFoundError{GraphID: graphID, BranchID: branchID}
	}
	return parseBranch(objects[0]), nil
}

// UpdateBranch overwrites an existing branch row.
func (s *Store) UpdateBranch(ctx context.Context, branch *datatypes.Branch) error {
	if err := branch.Validate(); err != nil {
		return err
	}

	if _, err := s.GetBranch(ctx, branch.GraphID, branch.BranchID); err != nil {
		return err
	}
	return s.putObject(ctx, BranchClassName, objectID(branchNamespace, branch.GraphID, branch.BranchID), branchProperties(branch))
}

// ListBranches returns all branch rows ordered by CreatedAt ascending, with
// BranchID as the tie-breaker so the order is stable.
func (s *Store) ListBranches(ctx context.Context, graphID string) ([]*datatypes.Branch, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	where := filters.Where().
		WithPath([]string{"graphId"}).
		WithOperator(filters.Equal).
		WithValueString(graphID)

	objects, err := s.query(ctx, BranchClassName, branchFields(), where, maxQueryResults)
	if err != nil {
		return nil, err
	}

	out := make([]*datatypes.Branch, 0, len(objects))
	for _, obj := range objects {
		out = append(out, parseBranch(obj))
	}
	sortBranches(out)
	return out, nil
}

func branchProperties(branch *datatypes.Branch) map[string]interface{} {
	props := map[string]interface{}{
		"branchId":     branch.BranchID,
		"graphId":      branch.GraphID,
		"name":         branch.Name,
		"createdAt":    branch.CreatedAt.Format(time.RFC3339Nano),
		"sourceNodeId": branch.SourceNodeID,
	}
	if !branch.UpdatedAt.IsZero() {
		props["updatedAt"] = branch.UpdatedAt.Format(time.RFC3339Nano)
	}
	return props
}

// -----------------------------------------------------------------------------
// Branch-filtered reads
// -----------------------------------------------------------------------------

// QueryNodesByGraph returns nodes on the branch, ordered by NodeID.
func (s *Store) QueryNodesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Node, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	objects, err := s.query(ctx, NodeClassName, nodeFields(), onBranchFilter(graphID, branchID), maxQueryResults)
	if err != nil {
		return nil, err
	}

	out := make([]*datatypes.Node, 0, len(objects))
	for _, obj := range objects {
		node, err := parseNode(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	sortNodes(out)
	return out, nil
}

// QueryEdgesByGraph returns edges on the branch, ordered by key. Endpoint
// visibility is not checked here.
func (s *Store) QueryEdgesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Edge, error) {
	if err := s.requireSpace(ctx, graphID); err != nil {
		return nil, err
	}

	objects, err := s.query(ctx, EdgeClassName, edgeFields(), onBranchFilter(graphID, branchID), maxQueryResults)
	if err != nil {
		return nil, err
	}

	out := make([]*datatypes.Edge, 0, len(objects))
	for _, obj := range objects {
		out = append(out, parseEdge(obj))
	}
	sortEdges(out)
	return out, nil
}

// onBranchFilter matches entities in graphID whose onBranches contains
// branchID.
func onBranchFilter(graphID, branchID string) *filters.WhereBuilder {
	return filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithPath([]string{"onBranches"}).
				WithOperator(filters.ContainsAny).
				WithValueText(branchID),
		})
}

// -----------------------------------------------------------------------------
// Traversal
// -----------------------------------------------------------------------------

// EdgesTouching returns edges with either endpoint in nodeIDs. Satisfies
// graphstore.EdgeLister: one query per BFS level regardless of frontier
// size.
func (s *Store) EdgesTouching(ctx context.Context, graphID string, nodeIDs []string) ([]*datatypes.Edge, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithOperator(filters.Or).
				WithOperands([]*filters.WhereBuilder{
					filters.Where().
						WithPath([]string{"sourceId"}).
						WithOperator(filters.ContainsAny).
						WithValueText(nodeIDs...),
					filters.Where().
						WithPath([]string{"targetId"}).
						WithOperator(filters.ContainsAny).
						WithValueText(nodeIDs...),
				}),
		})

	objects, err := s.query(ctx, EdgeClassName, edgeFields(), where, maxQueryResults)
	if err != nil {
		return nil, err
	}

	out := make([]*datatypes.Edge, 0, len(objects))
	for _, obj := range objects {
		out = append(out, parseEdge(obj))
	}
	return out, nil
}

// BoundedNeighborhood runs the shared frontier BFS, then fetches the
// reached nodes in a single filtered query.
func (s *Store) BoundedNeighborhood(ctx context.Context, graphID, startNodeID string, maxDepth int) (*graphstore.Neighborhood, error) {
	// Validates both the graph scope and the start node.
	if _, err := s.GetNode(ctx, graphID, startNodeID); err != nil {
		return nil, err
	}

	nodeIDs, edges, err := graphstore.ExpandFrontier(ctx, s, graphID, startNodeID, maxDepth)
	if err != nil {
		return nil, err
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"graphId"}).
				WithOperator(filters.Equal).
				WithValueString(graphID),
			filters.Where().
				WithPath([]string{"nodeId"}).
				WithOperator(filters.ContainsAny).
				WithValueText(nodeIDs...),
		})

	objects, err := s.query(ctx, NodeClassName, nodeFields(), where, maxQueryResults)
	if err != nil {
		return nil, err
	}

	nodes := make([]*datatypes.Node, 0, len(objects))
	for _, obj := range objects {
		node, err := parseNode(obj)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	sortNodes(nodes)
	return &graphstore.Neighborhood{Nodes: nodes, Edges: edges}, nil
}

// -----------------------------------------------------------------------------
// Object plumbing
// -----------------------------------------------------------------------------

// createObject creates an object under its deterministic id.
func (s *Store) createObject(ctx context.Context, class string, id strfmt.UUID, props map[string]interface{}) error {
	return s.conn.Execute(ctx, "create."+class, func() error {
		_, err := s.conn.Client().Data().Creator().
			WithClassName(class).
			WithID(id.String()).
			WithProperties(props).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("create %s object: %w", class, err)
		}
		return nil
	})
}

// putObject creates or replaces an object under its deterministic id.
func (s *Store) putObject(ctx context.Context, class string, id strfmt.UUID, props map[string]interface{}) error {
	exists, err := s.objectExists(ctx, class, id)
	if err != nil {
		return err
	}
	if !exists {
		return s.createObject(ctx, class, id, props)
	}

	return s.conn.Execute(ctx, "update."+class, func() error {
		err := s.conn.Client().Data().Updater().
			WithClassName(class).
			WithID(id.String()).
			WithProperties(props).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("update %s object: %w", class, err)
		}
		return nil
	})
}

func (s *Store) objectExists(ctx context.Context, class string, id strfmt.UUID) (bool, error) {
	var exists bool
	err := s.conn.Execute(ctx, "exists."+class, func() error {
		var err error
		exists, err = s.conn.Client().Data().Checker().
			WithClassName(class).
			WithID(id.String()).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("check %s object: %w", class, err)
		}
		return nil
	})
	return exists, err
}

// query runs a filtered GraphQL Get and returns the raw objects.
func (s *Store) query(ctx context.Context, class string, fields []graphql.Field, where *filters.WhereBuilder, limit int) ([]map[string]interface{}, error) {
	var result *models.GraphQLResponse
	err := s.conn.Execute(ctx, "query."+class, func() error {
		var err error
		result, err = s.conn.Client().GraphQL().Get().
			WithClassName(class).
			WithFields(fields...).
			WithWhere(where).
			WithLimit(limit).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("query %s: %w", class, err)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("query %s: %s", class, result.Errors[0].Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	objects, ok := data[class].([]interface{})
	if !ok {
		return nil, nil
	}

	out := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		if m, ok := obj.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
