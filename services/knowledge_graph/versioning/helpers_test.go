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
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore/memstore"
)

// fakeClock hands out strictly increasing timestamps so ordering assertions
// are deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store,
		WithLogger(logger),
		WithClock(newFakeClock().Now),
	)
	return svc, store
}

// seedChain creates a graph space and a linear chain of nodes joined by
// "relates_to" edges, everything on the default branch.
func seedChain(t *testing.T, svc *Service, graphID string, nodeIDs ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.CreateGraphSpace(ctx, &datatypes.GraphSpace{
		GraphID:  graphID,
		TenantID: "tenant-1",
		Name:     "test graph",
	})
	require.NoError(t, err)

	for _, id := range nodeIDs {
		_, err := svc.AddNode(ctx, graphID, id, map[string]any{"label": id})
		require.NoError(t, err)
	}
	for i := 0; i+1 < len(nodeIDs); i++ {
		_, err := svc.AddEdge(ctx, graphID, nodeIDs[i], "relates_to", nodeIDs[i+1])
		require.NoError(t, err)
	}
}
