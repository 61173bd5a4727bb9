// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
)

// runReset executes the 'reset' command: deletes the on-disk database
// named by the project's configured DBPath. A no-op for the in-memory
// "mem" backend, since there is nothing on disk to remove.
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph reset --yes

Description:
  WARNING: deletes all locally indexed data for the current project
  by removing the on-disk database directory named in project.yaml's
  storage.db_path. Configuration itself is left untouched.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		kerrors.Fatal(kerrors.NewBadRequestError("the --yes flag is required to confirm this destructive operation"), globals.JSON)
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	dbPath := cfg.Storage.DBPath

	if dbPath == "" || dbPath == "mem" {
		ui.Dim.Println("In-memory store; nothing on disk to delete.")
		return
	}

	idx := strings.IndexByte(dbPath, ':')
	if idx < 0 {
		kerrors.Fatal(kerrors.NewBadRequestError("unrecognized storage.db_path: %s", dbPath), globals.JSON)
	}
	dir := dbPath[idx+1:]

	fmt.Printf("Deleting %s...\n", dir)
	if err := os.RemoveAll(dir); err != nil {
		kerrors.Fatal(kerrors.NewInternalError(err), globals.JSON)
	}

	ui.Success.Println("Reset complete. Run 'codegraph index' to rebuild.")
}
