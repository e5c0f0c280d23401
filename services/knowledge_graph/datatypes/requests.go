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

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxBranchNameLength bounds branch names. Long names are a symptom of
// callers stuffing metadata where it does not belong.
const MaxBranchNameLength = 128

// graphValidate is the shared validator instance for request types.
// Initialized in init() with custom validators.
var graphValidate *validator.Validate

// branchNamePattern permits word characters, dots, dashes, and slashes,
// the same shape git accepts for ref names, minus the exotic cases.
var branchNamePattern = regexp.MustCompile(`^[\w][\w./-]*$`)

func init() {
	graphValidate = validator.New()
	_ = graphValidate.RegisterValidation("branchname", validateBranchName)
}

// validateBranchName checks that a branch name is non-empty, bounded, and
// matches branchNamePattern.
func validateBranchName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > MaxBranchNameLength {
		return false
	}
	return branchNamePattern.MatchString(name)
}

// =============================================================================
// Request Types
// =============================================================================

// CreateBranchRequest asks for a new branch in an existing GraphSpace.
type CreateBranchRequest struct {
	GraphID string `json:"graph_id" validate:"required"`
	Name    string `json:"name" validate:"required,branchname"`
}

// Validate runs tag validation on the request.
func (r *CreateBranchRequest) Validate() error {
	return graphValidate.Struct(r)
}

// ForkRequest asks to tag the bounded neighborhood around SourceNodeID into
// BranchID. Depth outside [MinForkDepth, MaxForkDepth] is clamped by the
// engine, not rejected here, so it carries no range tag.
type ForkRequest struct {
	GraphID      string `json:"graph_id" validate:"required"`
	BranchID     string `json:"branch_id" validate:"required"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	Depth        int    `json:"depth"`
}

// Validate runs tag validation on the request.
func (r *ForkRequest) Validate() error {
	return graphValidate.Struct(r)
}

// CompareRequest asks for the structural diff between two branches of the
// same GraphSpace.
type CompareRequest struct {
	GraphID string `json:"graph_id" validate:"required"`
	BranchA string `json:"branch_a" validate:"required"`
	BranchB string `json:"branch_b" validate:"required"`
}

// Validate runs tag validation on the request.
func (r *CompareRequest) Validate() error {
	return graphValidate.Struct(r)
}
