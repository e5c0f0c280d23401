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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGraph/pkg/logging"
	"github.com/AleutianAI/AleutianGraph/services/knowledge_graph/config"
)

// appLogger is shared by every command. It is initialized in the root
// command's PersistentPreRun after the config file has been loaded.
var appLogger *logging.Logger

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		appLogger = logging.New(logging.Config{
			Level:   parseLogLevel(config.Global.Logging.Level),
			LogDir:  config.Global.Logging.LogDir,
			Service: "kgraph",
			JSON:    config.Global.Logging.JSON,
			Quiet:   config.Global.Logging.Quiet || jsonOutput,
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			appLogger.Close()
		}
	}
}

func parseLogLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
