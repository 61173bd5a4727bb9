// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/config"
	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
)

// runInit executes the 'init' command: writes a default
// .codegraph/project.yaml for the current working directory.
func runInit(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing project.yaml")
	dbPath := fs.String("db", "mem", `Storage backend: "mem", "rocksdb:<path>", or "sqlite:<path>"`)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph init [options]

Description:
  Create .codegraph/project.yaml with default indexing, matcher, and
  watcher settings for the current working directory.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := resolveConfigPath(configPath)
	if _, err := os.Stat(path); err == nil && !*force {
		kerrors.Fatal(kerrors.NewBadRequestError("%s already exists; pass --force to overwrite", path), globals.JSON)
	}

	cfg := config.DefaultConfig(defaultProjectID())
	cfg.Storage.DBPath = *dbPath

	if err := config.Save(path, cfg); err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	ui.Success.Printf("Wrote %s\n", path)
}
