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
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/extract"
	"github.com/kraklabs/codegraph/pkg/reindex"
)

// runReindex executes the 'reindex' command: a single-file incremental
// reindex, the same operation the watcher triggers on filesystem events.
func runReindex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph reindex <path>

Description:
  Reindex a single file relative to the working directory, rebinding
  its entities against previously stored ones via content match,
  position match, or new-entity assignment. Pass a path that no
  longer exists on disk to remove its entities from the graph.

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		kerrors.Fatal(kerrors.NewBadRequestError("path argument required"), globals.JSON)
	}

	relPath := filepath.ToSlash(fs.Arg(0))
	ext := strings.TrimPrefix(filepath.Ext(relPath), ".")
	language := extract.LanguageFromExtension(ext)
	if language == "" {
		kerrors.Fatal(kerrors.NewBadRequestError("unsupported file extension: %s", ext), globals.JSON)
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	store, reg, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	root := workspaceRoot()
	fullPath := filepath.Join(root, relPath)

	r := reindex.New(store, reg, root, cfg.Matcher.PositionToleranceLines)
	if err := r.Validate(relPath, language); err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	outcome, err := r.ReindexFile(context.Background(), relPath, fullPath, language)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(outcome)
		return
	}

	if outcome.Deleted {
		ui.Success.Printf("Removed %d entities for deleted file %s\n", outcome.EntitiesRemoved, relPath)
		return
	}
	if outcome.Unchanged {
		ui.Dim.Printf("%s unchanged\n", relPath)
		return
	}
	ui.Success.Printf("Reindexed %s\n", relPath)
	fmt.Printf("  Entities: %d -> %d (added=%d removed=%d, content=%d position=%d)\n",
		outcome.EntitiesBefore, outcome.EntitiesAfter, outcome.EntitiesAdded, outcome.EntitiesRemoved,
		outcome.ContentMatches, outcome.PositionMatches)
	fmt.Printf("  Edges: added=%d removed=%d (hash_changed=%v)\n",
		outcome.EdgesAdded, outcome.EdgesRemoved, outcome.HashChanged)
}
