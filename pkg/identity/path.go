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

package identity

import "strings"

// NormalizeRelativePath strips workspaceRoot from absPath and returns a
// forward-slash relative path, regardless of host OS separators.
func NormalizeRelativePath(absPath, workspaceRoot string) string {
	p := strings.ReplaceAll(absPath, "\\", "/")
	root := strings.ReplaceAll(workspaceRoot, "\\", "/")
	root = strings.TrimSuffix(root, "/")
	p = strings.TrimPrefix(p, root)
	p = strings.TrimPrefix(p, "/")
	return p
}

// SubfolderLevels derives (L1, L2) from a normalized relative path:
// 0–1 path components → (".", ""); 2 components → (first, ""); 3+ → (first, second).
func SubfolderLevels(normalizedPath string) (l1, l2 string) {
	p := strings.TrimPrefix(normalizedPath, "./")
	p = strings.Trim(p, "/")
	if p == "" {
		return ".", ""
	}
	parts := strings.Split(p, "/")
	switch {
	case len(parts) <= 1:
		return ".", ""
	case len(parts) == 2:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}
