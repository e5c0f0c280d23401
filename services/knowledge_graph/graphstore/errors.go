// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphstore

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every Store implementation. Callers match with
// errors.Is; implementations wrap these with backend context.
var (
	// Not-found errors
	ErrGraphSpaceNotFound = errors.New("graph space not found")
	ErrNodeNotFound       = errors.New("node not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrBranchNotFound     = errors.New("branch not found")

	// Conflict errors
	ErrGraphSpaceExists = errors.New("graph space already exists")
	ErrBranchExists     = errors.New("branch already exists")
	ErrEdgeExists       = errors.New("edge already exists")
)

// NodeNotFoundError carries the graph scope of a missing node.
type NodeNotFoundError struct {
	GraphID string
	NodeID  string
}

// Error implements the error interface.
func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found in graph %q", e.NodeID, e.GraphID)
}

// Unwrap returns the sentinel error.
func (e *NodeNotFoundError) Unwrap() error {
	return ErrNodeNotFound
}

// BranchNotFoundError carries the graph scope of a missing branch.
type BranchNotFoundError struct {
	GraphID  string
	BranchID string
}

// Error implements the error interface.
func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %q not found in graph %q", e.BranchID, e.GraphID)
}

// Unwrap returns the sentinel error.
func (e *BranchNotFoundError) Unwrap() error {
	return ErrBranchNotFound
}
