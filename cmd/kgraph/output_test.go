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
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGraph/pkg/logging"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/datatypes"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logging.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, logging.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, logging.LevelError, parseLogLevel("error"))
	assert.Equal(t, logging.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, logging.LevelInfo, parseLogLevel(""))
	assert.Equal(t, logging.LevelInfo, parseLogLevel("verbose"))
}

func TestOutputBranchesText(t *testing.T) {
	branches := []*datatypes.Branch{
		{
			BranchID:  "main",
			GraphID:   "g1",
			Name:      "main",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			BranchID:     "exam-prep",
			GraphID:      "g1",
			Name:         "exam-prep",
			CreatedAt:    time.Date(2026, 1, 3, 3, 4, 5, 0, time.UTC),
			SourceNodeID: "chlorophyll",
		},
	}

	out := captureStdout(t, func() { outputBranchesText("g1", branches) })
	assert.Contains(t, out, "Branches of g1")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "(forked from chlorophyll)")
	assert.Contains(t, out, "Found 2 branches")

	empty := captureStdout(t, func() { outputBranchesText("g1", nil) })
	assert.Contains(t, empty, "No branches found")
}

func TestOutputDiffText(t *testing.T) {
	identical := captureStdout(t, func() {
		outputDiffText(&datatypes.BranchDiff{GraphID: "g1", BranchA: "a", BranchB: "b"})
	})
	assert.Contains(t, identical, "structurally identical")

	out := captureStdout(t, func() {
		outputDiffText(&datatypes.BranchDiff{
			GraphID:        "g1",
			BranchA:        "main",
			BranchB:        "exam-prep",
			NodeIDsOnlyInB: []string{"starch"},
			EdgesOnlyInB:   []string{"glucose|stored_as|starch"},
		})
	})
	assert.Contains(t, out, "Nodes only in exam-prep")
	assert.Contains(t, out, "starch")
	assert.Contains(t, out, "glucose|stored_as|starch")
	assert.NotContains(t, out, "Nodes only in main")
}

func TestOutputForkText(t *testing.T) {
	out := captureStdout(t, func() {
		outputForkText(&datatypes.ForkResult{
			BranchID:     "exam-prep",
			SourceNodeID: "chlorophyll",
			Depth:        2,
			NodesTagged:  3,
			EdgesTagged:  2,
			NodesAdded:   3,
			EdgesAdded:   2,
		})
	})
	assert.Contains(t, out, "Forked branch exam-prep from node chlorophyll (depth 2)")
	assert.Contains(t, out, "Nodes tagged: 3 (3 newly added)")
}
