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

package ingestion

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kraklabs/codegraph/pkg/extract"
)

// DiscoveredFile is one file found under a workspace root, with its
// extension-derived language already resolved.
type DiscoveredFile struct {
	Path     string // relative to root, forward-slash separated
	FullPath string
	Language string
	Size     int64
}

// WalkOptions controls directory traversal and per-file filtering.
type WalkOptions struct {
	ExcludeDirs []string
	MaxFileSize int64 // 0 means unlimited
}

// Walk discovers every source file under root whose extension maps to a
// known language and whose size is within MaxFileSize, skipping any
// directory named in ExcludeDirs at any depth (matches the
// default ignore list: target, node_modules, .git, build, dist).
func Walk(root string, opts WalkOptions) ([]DiscoveredFile, error) {
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var files []DiscoveredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() != "." && excluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.TrimPrefix(filepath.Ext(d.Name()), ".")
		lang := extract.LanguageFromExtension(ext)
		if lang == "" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, DiscoveredFile{
			Path:     filepath.ToSlash(rel),
			FullPath: path,
			Language: lang,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
