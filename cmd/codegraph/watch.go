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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/logging"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/reindex"
	"github.com/kraklabs/codegraph/pkg/watch"
)

// runWatch executes the 'watch' command: it runs until interrupted,
// incrementally reindexing files as the watcher's debounced events fire.
func runWatch(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph watch [options]

Description:
  Watch the working directory for file changes matching the
  configured watcher extensions and incrementally reindex each
  changed file, debounced. Runs until interrupted (Ctrl-C).

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	if !cfg.Watcher.Enabled {
		kerrors.Fatal(kerrors.NewBadRequestError("watcher is disabled in project.yaml"), globals.JSON)
	}

	logger := logging.New(logging.Options{JSON: globals.JSON, Verbose: globals.Verbose, Quiet: globals.Quiet})

	store, reg, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	root := workspaceRoot()
	r := reindex.New(store, reg, root, cfg.Matcher.PositionToleranceLines)
	w := watch.New(root, cfg.Watcher.Extensions, r, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ui.Dim.Printf("Watching %s for changes (extensions: %v)\n", root, cfg.Watcher.Extensions)
	if err := w.Run(ctx); err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	ui.Dim.Println("Watcher stopped.")
}
