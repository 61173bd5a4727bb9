// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/query"
)

// runStatus executes the 'status' command: a snapshot of health and entity
// counts for the project's configured store.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph status [options]

Description:
  Display the current health and entity counts for the project's
  store: code vs. test entity counts, dependency edge count, and
  languages observed.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	store, _, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	svc := query.New(store)
	ctx := context.Background()

	health := svc.Health()
	stats, err := svc.Stats(ctx)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"status":         health.Status,
			"uptime_seconds": health.UptimeSeconds,
			"code_count":     stats.CodeCount,
			"test_count":     stats.TestCount,
			"edges_count":    stats.EdgesCount,
			"languages":      stats.Languages,
			"db_path":        stats.DBPath,
		})
		return
	}

	ui.Bold.Println("codegraph status")
	fmt.Printf("%s %s\n", ui.Dim.Sprint("Project:"), cfg.ProjectID)
	fmt.Printf("%s  %s\n", ui.Dim.Sprint("Store:"), stats.DBPath)
	fmt.Println()
	fmt.Printf("  Code entities: %d\n", stats.CodeCount)
	fmt.Printf("  Test entities: %d\n", stats.TestCount)
	fmt.Printf("  Edges:         %d\n", stats.EdgesCount)
	fmt.Printf("  Languages:     %v\n", stats.Languages)
}
