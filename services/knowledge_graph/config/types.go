// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"time"
)

// Storage backend names accepted in the config file.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendWeaviate = "weaviate"
)

type KGraphConfig struct {
	// Storage selects and configures the graph backend.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics: toggle for the Prometheus registry.
	Metrics MetricsConfig `yaml:"metrics"`
}

type StorageConfig struct {
	// Backend can be "memory", "badger", or "weaviate".
	Backend string `yaml:"backend"`

	Badger   BadgerConfig   `yaml:"badger"`
	Weaviate WeaviateConfig `yaml:"weaviate"`
}

type BadgerConfig struct {
	Path       string `yaml:"path"`        // e.g. ~/.aleutian/kgraph/db
	SyncWrites bool   `yaml:"sync_writes"` // durability over write latency
}

type WeaviateConfig struct {
	URL             string        `yaml:"url"` // e.g. http://localhost:8080
	RetryAttempts   int           `yaml:"retry_attempts"`
	CircuitCooldown time.Duration `yaml:"circuit_cooldown"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"` // debug, info, warn, error
	LogDir string `yaml:"log_dir,omitempty"`
	JSON   bool   `yaml:"json"`
	Quiet  bool   `yaml:"quiet"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate checks the backend selection and its required settings.
func (c *KGraphConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Storage.Badger.Path == "" {
			return fmt.Errorf("storage.badger.path is required for the %s backend", BackendBadger)
		}
	case BackendWeaviate:
		if c.Storage.Weaviate.URL == "" {
			return fmt.Errorf("storage.weaviate.url is required for the %s backend", BackendWeaviate)
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s, or %s)",
			c.Storage.Backend, BackendMemory, BackendBadger, BackendWeaviate)
	}
	return nil
}

func DefaultConfig() KGraphConfig {
	return KGraphConfig{
		Storage: StorageConfig{
			Backend: BackendBadger,
			Badger: BadgerConfig{
				Path:       "~/.aleutian/kgraph/db",
				SyncWrites: true,
			},
			Weaviate: WeaviateConfig{
				URL:             "http://localhost:8080",
				RetryAttempts:   3,
				CircuitCooldown: 30 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}
