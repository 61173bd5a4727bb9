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
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/cozodb"
)

// runQuery executes the 'query' command: a raw Datalog query against the
// configured store, for analysis beyond the structured query operations.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Add :limit clause to the query (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph query [options] <datalog>

Description:
  Run a raw Datalog query against the code graph's CodeGraph and
  DependencyEdges relations.

Examples:
  codegraph query "?[name, file_path] := *code_graph{name, file_path}" --limit 10
  codegraph query "?[count(isgl1_key)] := *code_graph{isgl1_key}"

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		kerrors.Fatal(kerrors.NewBadRequestError("datalog script argument required"), globals.JSON)
	}

	script := fs.Arg(0)
	if *limit > 0 {
		trimmed := strings.TrimSpace(script)
		if !strings.Contains(strings.ToLower(trimmed), ":limit") {
			script = fmt.Sprintf("%s :limit %d", trimmed, *limit)
		}
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	store, _, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := store.RawQuery(ctx, script)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}

	if len(result.Rows) == 0 && !globals.JSON {
		fmt.Fprintln(os.Stderr, "Warning: query returned no results")
	}

	if globals.JSON {
		outputQueryJSON(result)
		return
	}
	printQueryResult(result)
}

func outputQueryJSON(result cozodb.NamedRows) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"headers": result.Headers,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	})
}

func printQueryResult(result cozodb.NamedRows) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)
	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)
	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
