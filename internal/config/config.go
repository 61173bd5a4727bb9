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

// Package config loads and persists the project.yaml configuration file
// that drives ingestion, the matcher, and the file watcher.
package config

import (
	"os"
	"path/filepath"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir  = ".codegraph"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config is the project.yaml schema.
type Config struct {
	Version  string         `yaml:"version"`
	ProjectID string        `yaml:"project_id"`
	Storage  StorageConfig  `yaml:"storage"`
	Indexing IndexingConfig `yaml:"indexing"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Watcher  WatcherConfig  `yaml:"watcher"`
}

// StorageConfig selects the embedded store backend and location.
type StorageConfig struct {
	// DBPath is "mem", "rocksdb:<path>", or "sqlite:<path>".
	DBPath string `yaml:"db_path"`
}

// IndexingConfig controls the whole-tree scan and per-file filtering.
type IndexingConfig struct {
	IncludePatterns []string `yaml:"include_patterns,omitempty"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	ParallelWorkers int      `yaml:"parallel_workers"`
}

// MatcherConfig exposes the Entity Matcher's tunable, recording the chosen
// tolerance in configuration rather than hardcoding it.
type MatcherConfig struct {
	PositionToleranceLines int `yaml:"position_tolerance_lines"`
}

// WatcherConfig controls the fsnotify-based incremental reindex trigger.
type WatcherConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Extensions []string `yaml:"extensions"`
}

// DefaultExcludePatterns is the default set of directories skipped during a whole-tree scan.
var DefaultExcludePatterns = []string{"target", "node_modules", ".git", "build", "dist"}

// DefaultWatchExtensions is the default set of file extensions the watcher reindexes on change.
var DefaultWatchExtensions = []string{
	"rs", "py", "js", "ts", "go", "java", "c", "h", "cpp", "hpp", "rb", "php", "cs", "swift",
}

// DefaultConfig returns a Config populated with the system's defaults.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:   configVersion,
		ProjectID: projectID,
		Storage: StorageConfig{
			DBPath: "mem",
		},
		Indexing: IndexingConfig{
			ExcludePatterns: DefaultExcludePatterns,
			MaxFileSize:     100 * 1024 * 1024,
			ParallelWorkers: 4,
		},
		Matcher: MatcherConfig{
			PositionToleranceLines: 10,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			Extensions: DefaultWatchExtensions,
		},
	}
}

// Path returns the configuration file path under dir, or the default
// location (<dir>/.codegraph/project.yaml) when configPath is empty.
func Path(dir, configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.NewNotFoundError("config file %s not found", path)
		}
		return nil, kerrors.NewInternalError(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, kerrors.NewConfigError("parsing %s: %v", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return kerrors.NewInternalError(err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return kerrors.NewInternalError(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return kerrors.NewInternalError(err)
	}
	return nil
}
