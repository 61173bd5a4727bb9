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
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/codegraph/internal/config"
	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/metrics"
	"github.com/kraklabs/codegraph/pkg/storage"
)

// resolveConfigPath returns the effective project.yaml path for the current
// working directory, honoring an explicit --config override.
func resolveConfigPath(configPath string) string {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return config.Path(dir, configPath)
}

// loadOrDefaultConfig loads the project configuration, falling back to an
// in-memory default (project ID derived from the working directory name)
// when no project.yaml exists yet. Commands that require an existing
// project (status, query, reset) should call loadConfigRequired instead.
func loadOrDefaultConfig(configPath string) *config.Config {
	path := resolveConfigPath(configPath)
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	return config.DefaultConfig(defaultProjectID())
}

// loadConfigRequired loads the project configuration, exiting the process
// with a NotFound error if none exists.
func loadConfigRequired(configPath string, jsonMode bool) *config.Config {
	path := resolveConfigPath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		kerrors.Fatal(err, jsonMode)
	}
	return cfg
}

func defaultProjectID() string {
	dir, err := os.Getwd()
	if err != nil {
		return "project"
	}
	return filepath.Base(dir)
}

// openStore opens the store named by cfg.Storage.DBPath, wired to a fresh
// metrics registry so every subcommand's store, pipeline, and reindexer
// operations are observable under the same registry.
func openStore(cfg *config.Config) (*storage.Store, *metrics.Registry, error) {
	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	store, err := storage.Open(storage.Config{DBPath: cfg.Storage.DBPath}, reg)
	return store, reg, err
}

func workspaceRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
