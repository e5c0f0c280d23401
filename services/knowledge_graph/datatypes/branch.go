// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// Branch is a named, lightweight view over a subset of a GraphSpace.
//
// A branch owns no entities. It is a metadata row plus the implicit set of
// nodes and edges whose OnBranches contains BranchID. Creating a branch is
// cheap; populating it happens by forking (see the versioning package).
//
// SourceNodeID and UpdatedAt are fork provenance: which node the branch was
// last forked from, and when. They are overwritten on each fork; only the
// most recent fork is remembered. SourceNodeID is empty for branches that
// have never been forked into (including the default "main" branch).
type Branch struct {
	BranchID     string    `json:"branch_id" validate:"required"`
	GraphID      string    `json:"graph_id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SourceNodeID string    `json:"source_node_id,omitempty"`
}

// Validate checks required fields.
func (b *Branch) Validate() error {
	if b.BranchID == "" {
		return ErrEmptyBranchID
	}
	if b.GraphID == "" {
		return ErrEmptyGraphID
	}
	if b.Name == "" {
		return ErrEmptyName
	}
	return nil
}
