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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/observability"
)

const tracerName = "services/knowledge_graph/versioning"

// Service is the exposed surface of the versioning engine. The HTTP layer
// and the ingestion pipeline call it; it composes Registry, Tagger, Forker,
// View, and Differ over one Store and adds tracing, metrics, and logging
// around every operation.
//
// Callers arrive with an already-resolved (tenant, graph) identity. The
// service takes the graph id explicitly on every call and holds no ambient
// per-request state.
type Service struct {
	store    graphstore.Store
	registry *Registry
	tagger   *Tagger
	forker   *Forker
	view     *View
	differ   *Differ

	logger  *slog.Logger
	metrics *observability.GraphMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus metrics sink. Nil disables recording.
func WithMetrics(metrics *observability.GraphMetrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService assembles the versioning engine over a store.
func NewService(store graphstore.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry = NewRegistry(store, s.logger, s.metrics)
	s.registry.now = s.now
	s.tagger = NewTagger(store)
	s.forker = NewForker(store, s.registry, s.tagger, s.logger)
	s.forker.now = s.now
	s.view = NewView(store)
	s.differ = NewDiffer(s.view)
	return s
}

// -----------------------------------------------------------------------------
// GraphSpace and entity ingestion
// -----------------------------------------------------------------------------

// CreateGraphSpace registers a new tenant graph and its default "main"
// branch. The default branch id equals datatypes.DefaultBranchName so
// entity creation can tag it without a lookup.
func (s *Service) CreateGraphSpace(ctx context.Context, space *datatypes.GraphSpace) (*datatypes.GraphSpace, error) {
	if space.GraphID == "" {
		space.GraphID = uuid.NewString()
	}
	space.CreatedAt = s.now()
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("validating graph space: %w", err)
	}

	if err := s.store.CreateGraphSpace(ctx, space); err != nil {
		return nil, fmt.Errorf("persisting graph space %q: %w", space.GraphID, err)
	}

	if _, err := s.registry.EnsureBranch(ctx, space.GraphID, datatypes.DefaultBranchName); err != nil {
		return nil, fmt.Errorf("creating default branch: %w", err)
	}

	s.logger.Info("graph space created",
		"graph_id", space.GraphID,
		"tenant_id", space.TenantID,
		"name", space.Name)
	return space, nil
}

// AddNode creates a node on the default branch, or updates the properties
// of an existing one. Branch membership is append-only, so an update keeps
// every branch the node is already on; its new content is then visible on
// all of them. A fresh node id is generated when nodeID is empty.
func (s *Service) AddNode(ctx context.Context, graphID, nodeID string, properties map[string]any) (*datatypes.Node, error) {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	node := &datatypes.Node{
		NodeID:     nodeID,
		GraphID:    graphID,
		Properties: properties,
	}

	existing, err := s.store.GetNode(ctx, graphID, nodeID)
	switch {
	case err == nil:
		node.OnBranches = existing.OnBranches
	case errors.Is(err, graphstore.ErrNodeNotFound):
	default:
		return nil, fmt.Errorf("resolving node %q: %w", nodeID, err)
	}
	node.AddBranch(datatypes.DefaultBranchName)

	if err := s.store.UpsertNode(ctx, node); err != nil {
		return nil, fmt.Errorf("persisting node %q: %w", nodeID, err)
	}
	return node, nil
}

// AddEdge creates an edge between two existing nodes and tags it onto the
// default branch. The graph id comes from the caller and both endpoints
// must already exist in that graph; there is no backfill path for edges
// with a missing scope. Adding an edge that already exists returns the
// stored edge unchanged.
func (s *Service) AddEdge(ctx context.Context, graphID, sourceID, predicate, targetID string) (*datatypes.Edge, error) {
	if _, err := s.store.GetNode(ctx, graphID, sourceID); err != nil {
		return nil, fmt.Errorf("resolving edge source: %w", err)
	}
	if _, err := s.store.GetNode(ctx, graphID, targetID); err != nil {
		return nil, fmt.Errorf("resolving edge target: %w", err)
	}

	edge := &datatypes.Edge{
		SourceID:  sourceID,
		TargetID:  targetID,
		Predicate: predicate,
		GraphID:   graphID,
	}
	edge.AddBranch(datatypes.DefaultBranchName)

	err := s.store.CreateEdge(ctx, edge)
	if errors.Is(err, graphstore.ErrEdgeExists) {
		return s.store.GetEdge(ctx, graphID, sourceID, predicate, targetID)
	}
	if err != nil {
		return nil, fmt.Errorf("persisting edge %q: %w", edge.Key(), err)
	}
	return edge, nil
}

// -----------------------------------------------------------------------------
// Versioning operations
// -----------------------------------------------------------------------------

// CreateBranch creates a new, empty branch in the graph.
func (s *Service) CreateBranch(ctx context.Context, req *datatypes.CreateBranchRequest) (branch *datatypes.Branch, err error) {
	ctx, finish := s.startOp(ctx, observability.OpCreateBranch,
		attribute.String("graph.id", req.GraphID))
	defer func() { finish(err) }()

	return s.registry.CreateBranch(ctx, req)
}

// ListBranches returns the graph's branches, oldest first.
func (s *Service) ListBranches(ctx context.Context, graphID string) (branches []*datatypes.Branch, err error) {
	ctx, finish := s.startOp(ctx, observability.OpListBranches,
		attribute.String("graph.id", graphID))
	defer func() { finish(err) }()

	return s.registry.ListBranches(ctx, graphID)
}

// ForkFromNode tags the bounded neighborhood around a node into a branch.
func (s *Service) ForkFromNode(ctx context.Context, req *datatypes.ForkRequest) (result *datatypes.ForkResult, err error) {
	ctx, finish := s.startOp(ctx, observability.OpFork,
		attribute.String("graph.id", req.GraphID),
		attribute.String("branch.id", req.BranchID),
		attribute.Int("fork.depth", req.Depth))
	defer func() { finish(err) }()

	result, err = s.forker.ForkFromNode(ctx, req)
	if err == nil {
		s.metrics.RecordFork(result.NodesTagged, result.EdgesTagged, result.NodesAdded, result.EdgesAdded)
	}
	return result, err
}

// GetBranchGraph materializes the branch view.
func (s *Service) GetBranchGraph(ctx context.Context, graphID, branchID string) (bg *datatypes.BranchGraph, err error) {
	ctx, finish := s.startOp(ctx, observability.OpBranchGraph,
		attribute.String("graph.id", graphID),
		attribute.String("branch.id", branchID))
	defer func() { finish(err) }()

	return s.view.BranchGraph(ctx, graphID, branchID)
}

// CompareBranches diffs two branches structurally.
func (s *Service) CompareBranches(ctx context.Context, req *datatypes.CompareRequest) (diff *datatypes.BranchDiff, err error) {
	ctx, finish := s.startOp(ctx, observability.OpCompare,
		attribute.String("graph.id", req.GraphID))
	defer func() { finish(err) }()

	return s.differ.CompareBranches(ctx, req)
}

// -----------------------------------------------------------------------------
// Instrumentation
// -----------------------------------------------------------------------------

// startOp opens a span and starts the latency clock for one operation. The
// returned finish func records the span status and the metrics sample.
func (s *Service) startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "versioning."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.RecordOp(op, time.Since(start).Seconds(), err)
	}
}
