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

// Package main implements the codegraph CLI for indexing a repository,
// watching it for changes, and querying the resulting code graph.
//
// Usage:
//
//	codegraph init                      Create .codegraph/project.yaml
//	codegraph index                     Index the current repository
//	codegraph reindex <path>            Reindex a single file
//	codegraph watch                     Watch and incrementally reindex
//	codegraph [--json] status           Show project status
//	codegraph [--json] query <script>   Run a raw Datalog query
//	codegraph serve                     Start the HTTP query server
//	codegraph reset --yes               Delete all local indexed data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags that apply to every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .codegraph/project.yaml (default: ./.codegraph/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument (the command name) so
	// subcommand-specific flags like "reset --yes" pass through untouched.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - code graph indexer and query engine

codegraph builds a queryable graph of a repository's code entities and
their dependency edges, and keeps it current as files change.

Usage:
  codegraph <command> [options]

Commands:
  init        Create .codegraph/project.yaml configuration
  index       Index the current repository from scratch
  reindex     Reindex a single file incrementally
  watch       Watch the repository and reindex changed files
  status      Show project status and entity counts
  query       Run a raw Datalog query against the graph
  serve       Start the HTTP query server
  reset       Delete all local indexed data (destructive!)

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .codegraph/project.yaml
  -V, --version     Show version and exit

Examples:
  codegraph init
  codegraph index
  codegraph index --workers 8
  codegraph --json status
  codegraph query "?[name] := *code_graph{name}"
  codegraph watch

For detailed command help: codegraph <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	// JSON mode auto-enables quiet so progress bars can't corrupt the output stream.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "reindex":
		runReindex(cmdArgs, *configPath, globals)
	case "watch":
		runWatch(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "serve":
		os.Exit(runServe(cmdArgs, *configPath, globals))
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
