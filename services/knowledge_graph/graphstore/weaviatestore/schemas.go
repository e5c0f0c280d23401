// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package weaviatestore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Class names for the graph schema. Weaviate requires CamelCase.
const (
	GraphSpaceClassName = "KnowledgeGraphSpace"
	NodeClassName       = "KnowledgeNode"
	EdgeClassName       = "KnowledgeEdge"
	BranchClassName     = "KnowledgeBranch"
)

func GetGraphSpaceSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       GraphSpaceClassName,
		Description: "A tenant-scoped knowledge graph container.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "graphId",
				DataType:        []string{"text"},
				Description:     "Unique graph identifier.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "tenantId",
				DataType:        []string{"text"},
				Description:     "Owning tenant.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "name",
				DataType:    []string{"text"},
				Description: "Display name.",
			},
			{
				Name:        "createdAt",
				DataType:    []string{"text"},
				Description: "RFC3339 creation timestamp.",
			},
		},
	}
}

func GetNodeSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       NodeClassName,
		Description: "A concept node shared by every branch that references it.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "nodeId",
				DataType:        []string{"text"},
				Description:     "Node identifier, unique within its graph.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "graphId",
				DataType:        []string{"text"},
				Description:     "Graph the node belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "propertiesJson",
				DataType:    []string{"text"},
				Description: "Node payload as a JSON object.",
			},
			{
				Name:            "onBranches",
				DataType:        []string{"text[]"},
				Description:     "Branch ids this node is visible on.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

func GetEdgeSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       EdgeClassName,
		Description: "A directed, predicate-labeled edge between two nodes.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "sourceId",
				DataType:        []string{"text"},
				Description:     "Source node id.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "targetId",
				DataType:        []string{"text"},
				Description:     "Target node id.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "predicate",
				DataType:        []string{"text"},
				Description:     "Relationship label.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "graphId",
				DataType:        []string{"text"},
				Description:     "Graph the edge belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "onBranches",
				DataType:        []string{"text[]"},
				Description:     "Branch ids this edge is visible on.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

func GetBranchSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       BranchClassName,
		Description: "Branch metadata: a named view over a subset of one graph.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "branchId",
				DataType:        []string{"text"},
				Description:     "Branch identifier, unique within its graph.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "graphId",
				DataType:        []string{"text"},
				Description:     "Graph the branch belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "name",
				DataType:    []string{"text"},
				Description: "Display name.",
			},
			{
				Name:        "createdAt",
				DataType:    []string{"text"},
				Description: "RFC3339 creation timestamp.",
			},
			{
				Name:        "updatedAt",
				DataType:    []string{"text"},
				Description: "RFC3339 timestamp of the last fork into this branch.",
			},
			{
				Name:            "sourceNodeId",
				DataType:        []string{"text"},
				Description:     "Node the branch was last forked from. Empty if never forked.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureSchema creates any missing graph classes. Existing classes are left
// untouched.
func EnsureSchema(ctx context.Context, client *weaviate.Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	schemaGetters := []func() *models.Class{
		GetGraphSpaceSchema,
		GetNodeSchema,
		GetEdgeSchema,
		GetBranchSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()

		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
		if err == nil {
			continue
		}

		logger.Info("creating weaviate class", slog.String("class", class.Class))
		if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("create class %s: %w", class.Class, err)
		}
	}
	return nil
}
