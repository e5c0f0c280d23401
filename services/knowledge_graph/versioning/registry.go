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

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/observability"
)

// Registry manages Branch metadata rows within a GraphSpace.
type Registry struct {
	store   graphstore.Store
	logger  *slog.Logger
	metrics *observability.GraphMetrics
	now     func() time.Time
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(store graphstore.Store, logger *slog.Logger, metrics *observability.GraphMetrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateBranch creates a new branch in an existing GraphSpace.
//
// # Description
//
// Generates a fresh branch id, persists the branch row, and returns it.
// The branch starts empty: no entity is on it until a fork (or a tagger
// call) adds membership.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - req: Graph scope and branch name. Name must satisfy the branchname
//     validation rules.
//
// # Outputs
//
//   - *datatypes.Branch: The persisted branch row.
//   - error: graphstore.ErrGraphSpaceNotFound if the space is absent,
//     validation errors on a bad request.
func (r *Registry) CreateBranch(ctx context.Context, req *datatypes.CreateBranchRequest) (*datatypes.Branch, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating create branch request: %w", err)
	}

	if _, err := r.store.GetGraphSpace(ctx, req.GraphID); err != nil {
		return nil, fmt.Errorf("resolving graph space %q: %w", req.GraphID, err)
	}

	now := r.now()
	branch := &datatypes.Branch{
		BranchID:  uuid.NewString(),
		GraphID:   req.GraphID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("persisting branch %q: %w", branch.BranchID, err)
	}

	r.metrics.RecordBranchCreated()
	r.logger.Info("branch created",
		"graph_id", branch.GraphID,
		"branch_id", branch.BranchID,
		"name", branch.Name)
	return branch, nil
}

// ListBranches returns every branch of the GraphSpace ordered by CreatedAt
// ascending. The order is stable across calls.
func (r *Registry) ListBranches(ctx context.Context, graphID string) ([]*datatypes.Branch, error) {
	if _, err := r.store.GetGraphSpace(ctx, graphID); err != nil {
		return nil, fmt.Errorf("resolving graph space %q: %w", graphID, err)
	}
	branches, err := r.store.ListBranches(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("listing branches for graph %q: %w", graphID, err)
	}
	return branches, nil
}

// EnsureBranch creates the branch row if it does not exist yet.
//
// # Description
//
// Idempotent: an existing row is returned untouched, an absent one is
// created with Name equal to its id. The fork path uses this so forking
// into a branch id that was never explicitly registered is safe, and so a
// crashed fork retry does not trip over its own half-created branch.
// Concurrent callers may race on creation; the loser of the race reads the
// winner's row.
func (r *Registry) EnsureBranch(ctx context.Context, graphID, branchID string) (*datatypes.Branch, error) {
	branch, err := r.store.GetBranch(ctx, graphID, branchID)
	if err == nil {
		return branch, nil
	}
	if !errors.Is(err, graphstore.ErrBranchNotFound) {
		return nil, fmt.Errorf("resolving branch %q: %w", branchID, err)
	}

	now := r.now()
	branch = &datatypes.Branch{
		BranchID:  branchID,
		GraphID:   graphID,
		Name:      branchID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.store.CreateBranch(ctx, branch)
	switch {
	case err == nil:
		r.metrics.RecordBranchCreated()
		r.logger.Info("branch implicitly created",
			"graph_id", graphID,
			"branch_id", branchID)
		return branch, nil
	case errors.Is(err, graphstore.ErrBranchExists):
		// Lost a create race; the row is there now.
		return r.store.GetBranch(ctx, graphID, branchID)
	default:
		return nil, fmt.Errorf("creating branch %q: %w", branchID, err)
	}
}
