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

// Package logging builds the process-wide slog.Logger from the CLI's
// verbosity flags, matching the precedence --json implies --quiet observed
// throughout the command layer.
package logging

import (
	"log/slog"
	"os"
)

// Options mirrors the CLI's GlobalFlags relevant to logging.
type Options struct {
	JSON    bool
	Verbose int
	Quiet   bool
}

// New builds a *slog.Logger honoring opts. Quiet drops everything below
// Error; Verbose>0 lowers the floor to Debug; the default floor is Info.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Quiet:
		level = slog.LevelError
	case opts.Verbose > 0:
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return slog.New(handler)
}
