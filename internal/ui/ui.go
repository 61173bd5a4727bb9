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

// Package ui provides the small set of color/verbosity helpers shared by the
// codegraph CLI commands.
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	// Bold highlights headers and entity keys in human-readable output.
	Bold = color.New(color.Bold)
	// Success marks completed operations.
	Success = color.New(color.FgGreen)
	// Warn marks skipped files and non-fatal parser failures.
	Warn = color.New(color.FgYellow)
	// Fail marks fatal errors printed before exit.
	Fail = color.New(color.FgRed)
	// Dim marks secondary detail (paths, timings).
	Dim = color.New(color.FgHiBlack)
)

// InitColors decides whether color output is enabled, honoring an explicit
// --no-color flag, the NO_COLOR convention, and whether stdout is a
// terminal at all.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}
