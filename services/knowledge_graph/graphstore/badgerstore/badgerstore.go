// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badgerstore provides an embedded graphstore.Store on BadgerDB.
//
// It is the warm tier of the persistence model: single-machine deployments
// and the CLI's persistent mode run on it without a Weaviate instance.
//
// # Key Scheme
//
// Every entity lives under a type prefix followed by its graph scope, so a
// graph's rows form one contiguous, prefix-scannable key range:
//
//	gs/<graphID>                 GraphSpace
//	nd/<graphID>/<nodeID>        Node
//	ed/<graphID>/<edgeKey>       Edge (edgeKey = source|predicate|target)
//	br/<graphID>/<branchID>      Branch
//
// Values are JSON. BadgerDB iterates keys in byte order, which gives the
// query methods their id ordering for free.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badgerstore

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/graphstore"
)

const (
	prefixSpace  = "gs/"
	prefixNode   = "nd/"
	prefixEdge   = "ed/"
	prefixBranch = "br/"
)

// Config holds configuration for the embedded store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: synchronous writes, on-disk.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryConfig returns a configuration for tests: in-memory, async writes.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a BadgerDB-backed implementation of graphstore.Store.
//
// # Thread Safety
//
// Safe for concurrent use. Each method runs in its own BadgerDB
// transaction; overlapping upserts of the same entity serialize at commit.
type Store struct {
	db *badger.DB
}

var _ graphstore.Store = (*Store)(nil)

// Open opens (or creates) the database and returns a Store over it.
// Caller must call Close when done.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTxn executes fn in a read-write transaction and commits on success.
func (s *Store) withTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// withReadTxn executes fn in a read-only transaction.
func (s *Store) withReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}

// -----------------------------------------------------------------------------
// Keys and codec
// -----------------------------------------------------------------------------

func spaceKey(graphID string) []byte {
	return []byte(prefixSpace + graphID)
}

func nodeKey(graphID, nodeID string) []byte {
	return []byte(prefixNode + graphID + "/" + nodeID)
}

func edgeKey(graphID, key string) []byte {
	return []byte(prefixEdge + graphID + "/" + key)
}

func branchKey(graphID, branchID string) []byte {
	return []byte(prefixBranch + graphID + "/" + branchID)
}

// graphPrefix is the scan prefix for one entity type within one graph. The
// trailing separator keeps "g1" from matching "g10".
func graphPrefix(typePrefix, graphID string) []byte {
	return []byte(typePrefix + graphID + "/")
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(data []byte) error {
		return json.Unmarshal(data, v)
	})
}

// requireSpace fails with ErrGraphSpaceNotFound when the graph scope is
// absent. Every scoped read and write goes through it so the error semantics
// match the other backends.
func requireSpace(txn *badger.Txn, graphID string) error {
	if _, err := txn.Get(spaceKey(graphID)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return graphstore.ErrGraphSpaceNotFound
		}
		return fmt.Errorf("check graph space %q: %w", graphID, err)
	}
	return nil
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

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		key := spaceKey(space.GraphID)
		if _, err := txn.Get(key); err == nil {
			return graphstore.ErrGraphSpaceExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check graph space %q: %w", space.GraphID, err)
		}

		cp := *space
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		return setJSON(txn, key, &cp)
	})
}

// GetGraphSpace returns the space or ErrGraphSpaceNotFound.
func (s *Store) GetGraphSpace(ctx context.Context, graphID string) (*datatypes.GraphSpace, error) {
	var space datatypes.GraphSpace
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := getJSON(txn, spaceKey(graphID), &space); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return graphstore.ErrGraphSpaceNotFound
			}
			return fmt.Errorf("read graph space %q: %w", graphID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// -----------------------------------------------------------------------------
// Nodes
// -----------------------------------------------------------------------------

// UpsertNode writes a node, replacing any prior version.
func (s *Store) UpsertNode(ctx context.Context, node *datatypes.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, node.GraphID); err != nil {
			return err
		}
		return setJSON(txn, nodeKey(node.GraphID, node.NodeID), node)
	})
}

// GetNode returns the node or a NodeNotFoundError.
func (s *Store) GetNode(ctx context.Context, graphID, nodeID string) (*datatypes.Node, error) {
	var node datatypes.Node
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		if err := getJSON(txn, nodeKey(graphID, nodeID), &node); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &graphstore.NodeNotFoundError{GraphID: graphID, NodeID: nodeID}
			}
			return fmt.Errorf("read node %q: %w", nodeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
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

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, edge.GraphID); err != nil {
			return err
		}
		key := edgeKey(edge.GraphID, edge.Key())
		if _, err := txn.Get(key); err == nil {
			return graphstore.ErrEdgeExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check edge %q: %w", edge.Key(), err)
		}
		return setJSON(txn, key, edge)
	})
}

// UpsertEdge writes an edge, replacing any prior version.
func (s *Store) UpsertEdge(ctx context.Context, edge *datatypes.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, edge.GraphID); err != nil {
			return err
		}
		return setJSON(txn, edgeKey(edge.GraphID, edge.Key()), edge)
	})
}

// GetEdge returns the edge or ErrEdgeNotFound.
func (s *Store) GetEdge(ctx context.Context, graphID, sourceID, predicate, targetID string) (*datatypes.Edge, error) {
	var edge datatypes.Edge
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		key := edgeKey(graphID, datatypes.EdgeKey(sourceID, predicate, targetID))
		if err := getJSON(txn, key, &edge); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return graphstore.ErrEdgeNotFound
			}
			return fmt.Errorf("read edge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
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

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, branch.GraphID); err != nil {
			return err
		}
		key := branchKey(branch.GraphID, branch.BranchID)
		if _, err := txn.Get(key); err == nil {
			return graphstore.ErrBranchExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check branch %q: %w", branch.BranchID, err)
		}
		return setJSON(txn, key, branch)
	})
}

// GetBranch returns the branch row or a BranchNotFoundError.
func (s *Store) GetBranch(ctx context.Context, graphID, branchID string) (*datatypes.Branch, error) {
	var branch datatypes.Branch
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		if err := getJSON(txn, branchKey(graphID, branchID), &branch); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &graphstore.BranchNotFoundError{GraphID: graphID, BranchID: branchID}
			}
			return fmt.Errorf("read branch %q: %w", branchID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// UpdateBranch overwrites an existing branch row.
func (s *Store) UpdateBranch(ctx context.Context, branch *datatypes.Branch) error {
	if err := branch.Validate(); err != nil {
		return err
	}

	return s.withTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, branch.GraphID); err != nil {
			return err
		}
		key := branchKey(branch.GraphID, branch.BranchID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &graphstore.BranchNotFoundError{GraphID: branch.GraphID, BranchID: branch.BranchID}
			}
			return fmt.Errorf("check branch %q: %w", branch.BranchID, err)
		}
		return setJSON(txn, key, branch)
	})
}

// ListBranches returns all branch rows ordered by CreatedAt ascending, with
// BranchID as the tie-breaker so the order is stable.
func (s *Store) ListBranches(ctx context.Context, graphID string) ([]*datatypes.Branch, error) {
	out := make([]*datatypes.Branch, 0)
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		return scanJSON(txn, graphPrefix(prefixBranch, graphID), func(branch *datatypes.Branch) {
			out = append(out, branch)
		})
	})
	if err != nil {
		return nil, err
	}

	// Key order is BranchID order; re-sort by creation time.
	sortBranches(out)
	return out, nil
}

// -----------------------------------------------------------------------------
// Branch-filtered reads
// -----------------------------------------------------------------------------

// QueryNodesByGraph returns nodes on the branch, ordered by NodeID.
func (s *Store) QueryNodesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Node, error) {
	out := make([]*datatypes.Node, 0)
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		return scanJSON(txn, graphPrefix(prefixNode, graphID), func(node *datatypes.Node) {
			if node.OnBranch(branchID) {
				out = append(out, node)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryEdgesByGraph returns edges on the branch, ordered by key. Endpoint
// visibility is not checked here.
func (s *Store) QueryEdgesByGraph(ctx context.Context, graphID, branchID string) ([]*datatypes.Edge, error) {
	out := make([]*datatypes.Edge, 0)
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		return scanJSON(txn, graphPrefix(prefixEdge, graphID), func(edge *datatypes.Edge) {
			if edge.OnBranch(branchID) {
				out = append(out, edge)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Traversal
// -----------------------------------------------------------------------------

// EdgesTouching returns edges with either endpoint in nodeIDs. Satisfies
// graphstore.EdgeLister for the shared frontier BFS.
//
// One prefix scan over the graph's edge range per call. Per-node edge
// indexing is not worth its write amplification at the neighborhood sizes
// the depth cap allows.
func (s *Store) EdgesTouching(ctx context.Context, graphID string, nodeIDs []string) ([]*datatypes.Edge, error) {
	ids := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		ids[id] = true
	}

	var out []*datatypes.Edge
	err := s.withReadTxn(ctx, func(txn *badger.Txn) error {
		if err := requireSpace(txn, graphID); err != nil {
			return err
		}
		return scanJSON(txn, graphPrefix(prefixEdge, graphID), func(edge *datatypes.Edge) {
			if ids[edge.SourceID] || ids[edge.TargetID] {
				out = append(out, edge)
			}
		})
	})
	if err != nil {
		return nil, err
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
	err = s.withReadTxn(ctx, func(txn *badger.Txn) error {
		for _, id := range nodeIDs {
			var node datatypes.Node
			if err := getJSON(txn, nodeKey(graphID, id), &node); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return fmt.Errorf("read node %q: %w", id, err)
			}
			nodes = append(nodes, &node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &graphstore.Neighborhood{Nodes: nodes, Edges: edges}, nil
}

// -----------------------------------------------------------------------------
// Scan helpers
// -----------------------------------------------------------------------------

// scanJSON iterates every value under prefix in key order, decoding each into
// a fresh T and handing it to visit.
func scanJSON[T any](txn *badger.Txn, prefix []byte, visit func(*T)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		v := new(T)
		err := it.Item().Value(func(data []byte) error {
			return json.Unmarshal(data, v)
		})
		if err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		visit(v)
	}
	return nil
}

func sortBranches(branches []*datatypes.Branch) {
	slices.SortFunc(branches, func(a, b *datatypes.Branch) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BranchID, b.BranchID)
	})
}
