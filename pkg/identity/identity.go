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

// Package identity implements the ISGL1 v2 stable key scheme: semantic-path
// derivation, birth-timestamp computation, content hashing, name
// sanitization, and key formatting/parsing. Every function here is a pure,
// deterministic transform — no I/O, no store access.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
)

// sanitizeTable is applied left-to-right, matching the order pinned by
// isgl1_v2_generic_sanitization_tests.rs.
var sanitizeTable = []struct {
	from string
	to   string
}{
	{"<", "__lt__"},
	{">", "__gt__"},
	{"[", "__lb__"},
	{"]", "__rb__"},
	{"{", "__lc__"},
	{"}", "__rc__"},
	{",", "__c__"},
	{" ", "_"},
}

// SanitizeName applies the ISGL1 v2 substitution table left-to-right.
// Idempotent: none of the replacement strings reintroduce a character that
// a later rule in the table would itself rewrite.
func SanitizeName(name string) string {
	out := name
	for _, sub := range sanitizeTable {
		out = strings.ReplaceAll(out, sub.from, sub.to)
	}
	return out
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// SemanticPath derives the `__`-prefixed, extension-stripped, underscore
// separated rendering of a file path. Empty input yields "__".
func SemanticPath(filePath string) string {
	p := strings.TrimPrefix(filePath, "./")
	if ext := lastExt(p); ext != "" {
		p = strings.TrimSuffix(p, ext)
	}
	b := []byte(p)
	for i, c := range b {
		if !isWordByte(c) {
			b[i] = '_'
		}
	}
	return "__" + string(b)
}

func lastExt(p string) string {
	slash := strings.LastIndexByte(p, '/')
	base := p
	if slash >= 0 {
		base = p[slash+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		// no dot, or a dotfile with no further extension (".gitignore")
		return ""
	}
	return base[dot:]
}

// BirthTimestamp deterministically derives a positive integer identity
// token from (filePath, entityName). Stable across runs and hosts: it is a
// pure FNV-1a hash, never wall-clock time.
func BirthTimestamp(filePath, entityName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(entityName))
	v := int64(h.Sum64())
	if v < 0 {
		v = -v
	}
	if v == 0 {
		v = 1
	}
	return v
}

// ContentHash returns the 64-char lowercase hex SHA-256 digest of code's
// UTF-8 bytes. Whitespace-sensitive by design.
func ContentHash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// kindAbbrev maps an entity_type to the ISGL1 v2 key's "kind" segment.
var kindAbbrev = map[string]string{
	"function":  "fn",
	"method":    "mth",
	"class":     "cls",
	"struct":    "struct",
	"trait":     "iface",
	"interface": "iface",
	"module":    "mod",
	"constant":  "const",
	"field":     "fld",
	"enum":      "enum",
	"test":      "test",
}

// KindAbbrev returns the key "kind" segment for an entity_type, or the
// entity_type unchanged if no abbreviation is registered.
func KindAbbrev(entityType string) string {
	if abbr, ok := kindAbbrev[entityType]; ok {
		return abbr
	}
	return entityType
}

// FormatKey produces the ISGL1 v2 key "lang:kind:name:semanticPath:Tbirth".
// kind should already be an abbreviation (see KindAbbrev); name is
// sanitized here.
func FormatKey(lang, kind, name, semanticPath string, birthTimestamp int64) string {
	return fmt.Sprintf("%s:%s:%s:%s:T%d", lang, kind, SanitizeName(name), semanticPath, birthTimestamp)
}

// LanguageFromKey returns the language prefix of an ISGL1 v2 key.
func LanguageFromKey(key string) (string, error) {
	idx := strings.IndexByte(key, ':')
	if idx <= 0 {
		return "", kerrors.NewBadRequestError("malformed isgl1 key: %q", key)
	}
	return key[:idx], nil
}

// ParsedKey is the five-part decomposition of an ISGL1 v2 key.
type ParsedKey struct {
	Language       string
	Kind           string
	Name           string
	SemanticPath   string
	BirthTimestamp string // kept as string; it is an opaque token, not arithmetic
	Legacy         bool   // true if the last part lacks the leading "T" or holds a "<start>-<end>" line range (refused on write)
}

// ParseKey splits key into its five colon-separated parts. The legacy
// "lang:kind:name:path:start-end" form (no leading T, a hyphen instead) is
// accepted on read and flagged via Legacy, preserving the lazy-upgrade
// policy recorded in DESIGN.md.
func ParseKey(key string) (ParsedKey, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 5 {
		return ParsedKey{}, kerrors.NewBadRequestError("isgl1 key must have exactly 5 colon-separated parts, got %d: %q", len(parts), key)
	}
	last := parts[4]
	legacy := !strings.HasPrefix(last, "T") || strings.Contains(last, "-")
	return ParsedKey{
		Language:       parts[0],
		Kind:           parts[1],
		Name:           parts[2],
		SemanticPath:   parts[3],
		BirthTimestamp: last,
		Legacy:         legacy,
	}, nil
}
