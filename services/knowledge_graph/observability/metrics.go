// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the knowledge graph
// versioning service.
//
// Metric labels stay low-cardinality on purpose: operation names and
// statuses, never graph or branch ids.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aleutian"
	graphSubsystem   = "knowledge_graph"
	statusOK         = "ok"
	statusError      = "error"
)

// Operation names used as metric label values.
const (
	OpCreateBranch = "create_branch"
	OpListBranches = "list_branches"
	OpFork         = "fork"
	OpBranchGraph  = "branch_graph"
	OpCompare      = "compare"
)

// GraphMetrics holds all Prometheus metrics for versioning operations.
type GraphMetrics struct {
	// OpsTotal counts versioning operations by op and status.
	OpsTotal *prometheus.CounterVec

	// OpDurationSeconds observes end-to-end operation latency by op.
	OpDurationSeconds *prometheus.HistogramVec

	// EntitiesTaggedTotal counts entities whose branch membership actually
	// changed during forks, by entity kind (node|edge).
	EntitiesTaggedTotal *prometheus.CounterVec

	// ForkNeighborhoodSize observes discovered neighborhood sizes per fork,
	// by entity kind. High values mean callers fork at large depths.
	ForkNeighborhoodSize *prometheus.HistogramVec

	// BranchesCreatedTotal counts branch rows created, including implicit
	// creation via EnsureBranch.
	BranchesCreatedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance. Initialized by InitMetrics().
var DefaultMetrics *GraphMetrics

// InitMetrics creates and registers all metrics on the default registry.
//
// Call once at startup. Panics if called twice (duplicate registration).
func InitMetrics() *GraphMetrics {
	DefaultMetrics = &GraphMetrics{
		OpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: graphSubsystem,
				Name:      "ops_total",
				Help:      "Total versioning operations by op and status",
			},
			[]string{"op", "status"},
		),

		OpDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: graphSubsystem,
				Name:      "op_duration_seconds",
				Help:      "Versioning operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),

		EntitiesTaggedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: graphSubsystem,
				Name:      "entities_tagged_total",
				Help:      "Entities newly tagged into a branch by forks",
			},
			[]string{"kind"},
		),

		ForkNeighborhoodSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: graphSubsystem,
				Name:      "fork_neighborhood_size",
				Help:      "Entities discovered per fork neighborhood",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"kind"},
		),

		BranchesCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: graphSubsystem,
				Name:      "branches_created_total",
				Help:      "Branch rows created, explicit and implicit",
			},
		),
	}
	return DefaultMetrics
}

// RecordOp records one operation outcome with its latency.
func (m *GraphMetrics) RecordOp(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := statusOK
	if err != nil {
		status = statusError
	}
	m.OpsTotal.WithLabelValues(op, status).Inc()
	m.OpDurationSeconds.WithLabelValues(op).Observe(seconds)
}

// RecordFork records neighborhood sizes and newly-tagged deltas for a fork.
func (m *GraphMetrics) RecordFork(nodesTagged, edgesTagged, nodesAdded, edgesAdded int) {
	if m == nil {
		return
	}
	m.ForkNeighborhoodSize.WithLabelValues("node").Observe(float64(nodesTagged))
	m.ForkNeighborhoodSize.WithLabelValues("edge").Observe(float64(edgesTagged))
	m.EntitiesTaggedTotal.WithLabelValues("node").Add(float64(nodesAdded))
	m.EntitiesTaggedTotal.WithLabelValues("edge").Add(float64(edgesAdded))
}

// RecordBranchCreated counts one created branch row.
func (m *GraphMetrics) RecordBranchCreated() {
	if m == nil {
		return
	}
	m.BranchesCreatedTotal.Inc()
}
