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
	"github.com/kraklabs/codegraph/internal/logging"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/ingestion"
)

// runIndex executes the 'index' command: a full, non-incremental scan of
// the working directory, writing every discovered entity and edge to the
// configured store.
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	workers := fs.Int("workers", 0, "Parallel file workers (0 = use project.yaml, default 4)")
	maxFileSize := fs.Int64("max-file-size", 0, "Skip files larger than this many bytes (0 = use project.yaml)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph index [options]

Description:
  Walk the current working directory, parse every recognized source
  file, resolve call and implements edges, and write the resulting
  entities and edges to the configured store. Entries are upserted
  over what is already stored; entities of files that no longer exist
  are not removed. Run 'codegraph reset' first for a clean rebuild, or
  use 'codegraph reindex <path>' for incremental updates.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadOrDefaultConfig(configPath)
	logger := logging.New(logging.Options{JSON: globals.JSON, Verbose: globals.Verbose, Quiet: globals.Quiet})

	store, reg, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	pipeline := ingestion.NewPipeline(store, reg, logger)

	pcfg := ingestion.Config{
		WorkspaceRoot:          workspaceRoot(),
		ExcludeDirs:            cfg.Indexing.ExcludePatterns,
		MaxFileSize:            cfg.Indexing.MaxFileSize,
		ParallelWorkers:        cfg.Indexing.ParallelWorkers,
		PositionToleranceLines: cfg.Matcher.PositionToleranceLines,
		ShowProgress:           !globals.Quiet,
	}
	if *workers > 0 {
		pcfg.ParallelWorkers = *workers
	}
	if *maxFileSize > 0 {
		pcfg.MaxFileSize = *maxFileSize
	}

	report, err := pipeline.Run(context.Background(), pcfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}

	ui.Success.Println("Indexing complete.")
	fmt.Printf("  Files indexed:     %d\n", report.FilesIndexed)
	fmt.Printf("  Files skipped:     %d\n", report.FilesSkipped)
	fmt.Printf("  Entities upserted: %d\n", report.EntitiesUpserted)
	fmt.Printf("  Edges upserted:    %d\n", report.EdgesUpserted)
	fmt.Printf("  Unresolved calls:  %d\n", report.UnresolvedCalls)
	if len(report.Errors) > 0 {
		fmt.Println()
		ui.Warn.Println("Errors:")
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
