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
	"fmt"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/config"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore/badgerstore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore/memstore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore/weaviatestore"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/observability"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/versioning"
)

// newService constructs the versioning service over the configured backend.
// The returned cleanup function must be called before the process exits so
// the Badger value log is flushed.
func newService(ctx context.Context) (*versioning.Service, func(), error) {
	store, cleanup, err := newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []versioning.Option{versioning.WithLogger(appLogger.Slog())}
	if config.Global.Metrics.Enabled {
		opts = append(opts, versioning.WithMetrics(observability.InitMetrics()))
	}

	return versioning.NewService(store, opts...), cleanup, nil
}

func newStore(ctx context.Context) (graphstore.Store, func(), error) {
	noop := func() {}

	switch config.Global.Storage.Backend {
	case config.BackendMemory:
		return memstore.New(), noop, nil

	case config.BackendBadger:
		cfg := badgerstore.DefaultConfig(config.ExpandPath(config.Global.Storage.Badger.Path))
		cfg.SyncWrites = config.Global.Storage.Badger.SyncWrites
		cfg.Logger = appLogger.Slog()
		store, err := badgerstore.Open(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger store: %w", err)
		}
		return store, func() { store.Close() }, nil

	case config.BackendWeaviate:
		cfg := weaviatestore.DefaultClientConfig(config.Global.Storage.Weaviate.URL)
		if config.Global.Storage.Weaviate.RetryAttempts > 0 {
			cfg.RetryAttempts = config.Global.Storage.Weaviate.RetryAttempts
		}
		if config.Global.Storage.Weaviate.CircuitCooldown > 0 {
			cfg.CircuitCooldown = config.Global.Storage.Weaviate.CircuitCooldown
		}
		cfg.Logger = appLogger.Slog()
		conn, err := weaviatestore.Dial(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to weaviate: %w", err)
		}
		if err := weaviatestore.EnsureSchema(ctx, conn.Client(), appLogger.Slog()); err != nil {
			return nil, nil, fmt.Errorf("ensuring weaviate schema: %w", err)
		}
		store, err := weaviatestore.New(conn, appLogger.Slog())
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", config.Global.Storage.Backend)
	}
}
