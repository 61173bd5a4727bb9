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

// Package extract is the black-box parser boundary: given a file's content,
// produce the candidate entities and intra-file call/import edges the
// reindexer hands to the entity matcher. Two Extractors implement
// it — a tree-sitter-backed one for languages with a bundled grammar, and a
// pattern-matching fallback for everything else — behind the same interface
// so callers never branch on which one is in play.
package extract

// Candidate is a single function/method/type/etc. found in a file, prior to
// entity-matching against the store's prior state.
type Candidate struct {
	Name        string
	EntityType  string // function, method, class, struct, trait, module, constant, field, enum
	LineStart   int
	LineEnd     int
	Code        string
	Signature   string // best-effort; "" when the extractor can't produce one
	Receiver    string // base type name of a Go method's receiver; "" otherwise
}

// CallEdge is an intra-file (same-file resolvable) call site.
type CallEdge struct {
	CallerName string
	CalleeName string
	Line       int
}

// Import is a single import/require/use statement, used by the ingestion
// layer for cross-file edge resolution.
type Import struct {
	ImportPath string
	Alias      string
	Line       int
}

// Result is everything a single-file parse produces.
type Result struct {
	Language    string
	PackageName string
	Candidates  []Candidate
	Calls       []CallEdge
	Imports     []Import
	// Errors records recoverable per-node parse errors; a non-empty Errors
	// does not mean the whole file failed — partial results are still used.
	Errors []string
}

// Extractor parses one file's content into candidate entities and edges.
type Extractor interface {
	// Supports reports whether this Extractor handles language.
	Supports(language string) bool
	// Extract parses content (already read and UTF-8 validated by the
	// caller) for the named file and language.
	Extract(language, filePath string, content []byte) (*Result, error)
}

// LanguageFromExtension maps a file extension (without the leading dot) to
// the language identifier Extractors key off of. Mirrors the Watcher's
// default extension list (internal/config.DefaultWatchExtensions).
func LanguageFromExtension(ext string) string {
	switch ext {
	case "go":
		return "go"
	case "py":
		return "python"
	case "js", "jsx", "mjs":
		return "javascript"
	case "ts", "tsx":
		return "typescript"
	case "rs":
		return "rust"
	case "java":
		return "java"
	case "c", "h":
		return "c"
	case "cpp", "hpp", "cc", "cxx":
		return "cpp"
	case "rb":
		return "ruby"
	case "php":
		return "php"
	case "cs":
		return "csharp"
	case "swift":
		return "swift"
	default:
		return ""
	}
}
