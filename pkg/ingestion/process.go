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

// Package ingestion implements the whole-tree and single-file indexing
// pipeline: walk, extraction, entity matching and key assignment, call-edge
// and Implements-edge resolution, and writes to the store.
// The single-file path here (ProcessFile) is shared with the incremental
// reindexer in pkg/reindex.
package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/extract"
	"github.com/kraklabs/codegraph/pkg/identity"
	"github.com/kraklabs/codegraph/pkg/matcher"
	"github.com/kraklabs/codegraph/pkg/storage"
)

// FileResult is everything ProcessFile produces for one file: the entities
// ready to upsert, the edges whose targets resolved within the file, and
// the unresolved call targets a cross-file resolution pass handles.
type FileResult struct {
	Entities   []storage.CodeEntity
	MatchKinds []matcher.ResultKind // parallel to Entities, for reindex reporting
	Edges      []storage.DependencyEdge
	Unresolved []UnresolvedReference
	Candidates []extract.Candidate // retained for Implements-index building across the whole tree
}

// UnresolvedReference is a call whose target wasn't among this file's own
// candidates; the cross-file pass in Pipeline.Run retries it
// against the whole project's symbol table, falling back to the
// unresolved-reference sentinel key if it still doesn't resolve.
type UnresolvedReference struct {
	FromKey    string
	CalleeName string
	Line       int
}

// ProcessFile extracts candidates from content, matches them against
// oldEntities (the file's previously stored entities, empty for a new
// file), assigns ISGL1 v2 keys, and resolves same-file call edges.
// workspaceRoot is used only to compute the subfolder classification
// columns; it does not affect key derivation.
func ProcessFile(ext extract.Extractor, filePath, workspaceRoot, language string, content []byte, oldEntities []matcher.OldEntity, toleranceLines int, lastModified int64) (*FileResult, error) {
	if !utf8.Valid(content) {
		return nil, kerrors.NewNotUtf8Error(filePath)
	}
	if !ext.Supports(language) {
		return nil, fmt.Errorf("ingestion: no extractor supports language %q", language)
	}
	parsed, err := ext.Extract(language, filePath, content)
	if err != nil {
		return nil, kerrors.NewParserFailureError(filePath, err)
	}

	semanticPath := identity.SemanticPath(filePath)
	rel := identity.NormalizeRelativePath(filePath, workspaceRoot)
	l1, l2 := identity.SubfolderLevels(rel)

	candidates := make([]matcher.NewCandidate, len(parsed.Candidates))
	for i, c := range parsed.Candidates {
		candidates[i] = matcher.NewCandidate{
			Name:        c.Name,
			EntityType:  c.EntityType,
			FilePath:    filePath,
			LineRange:   matcher.LineRange{Start: c.LineStart, End: c.LineEnd},
			ContentHash: identity.ContentHash(c.Code),
			Code:        c.Code,
		}
	}
	results := matcher.Match(candidates, oldEntities, toleranceLines)

	entities := make([]storage.CodeEntity, len(candidates))
	matchKinds := make([]matcher.ResultKind, len(candidates))
	nameToKey := make(map[string]string, len(candidates)) // entity name -> assigned key, for same-file call resolution
	for i, cand := range candidates {
		var key string
		birth := identity.BirthTimestamp(filePath, cand.Name)
		switch results[i].Kind {
		case matcher.ContentMatch, matcher.PositionMatch:
			// A rebind preserves the entity's original identity: reuse its key
			// (and the birth timestamp encoded in it) rather than minting a new
			// one, even though its source range or content may have moved.
			key = results[i].OldKey
			if parsed, err := identity.ParseKey(key); err == nil && !parsed.Legacy {
				if b, perr := strconv.ParseInt(parsed.BirthTimestamp[1:], 10, 64); perr == nil {
					birth = b
				}
			}
		default:
			kind := identity.KindAbbrev(cand.EntityType)
			key = identity.FormatKey(language, kind, cand.Name, semanticPath, birth)
		}
		matchKinds[i] = results[i].Kind
		nameToKey[cand.Name] = key
		entityClass := "CODE"
		if looksLikeTest(filePath, cand.Name) {
			entityClass = "TEST"
		}
		entities[i] = storage.CodeEntity{
			ISGL1Key:           key,
			Name:               cand.Name,
			EntityType:         cand.EntityType,
			EntityClass:        entityClass,
			FilePath:           filePath,
			LineStart:          cand.LineRange.Start,
			LineEnd:            cand.LineRange.End,
			Language:           language,
			CurrentCode:        cand.Code,
			ContentHash:        cand.ContentHash,
			BirthTimestamp:     birth,
			SemanticPath:       semanticPath,
			RootSubfolderL1:    l1,
			RootSubfolderL2:    l2,
			LastModified:       lastModified,
			ReceiverType:       parsed.Candidates[i].Receiver,
			InterfaceSignature: parsed.Candidates[i].Signature,
		}
	}

	var edges []storage.DependencyEdge
	var unresolved []UnresolvedReference
	for _, call := range parsed.Calls {
		fromKey, ok := nameToKey[call.CallerName]
		if !ok {
			continue
		}
		if toKey, ok := nameToKey[call.CalleeName]; ok {
			edges = append(edges, storage.DependencyEdge{
				FromKey: fromKey, ToKey: toKey, EdgeType: "Calls",
				SourceLocation: fmt.Sprintf("%s:%d", filePath, call.Line),
			})
			continue
		}
		unresolved = append(unresolved, UnresolvedReference{FromKey: fromKey, CalleeName: call.CalleeName, Line: call.Line})
	}

	return &FileResult{Entities: entities, MatchKinds: matchKinds, Edges: edges, Unresolved: unresolved, Candidates: parsed.Candidates}, nil
}

// looksLikeTest applies a naming-convention heuristic for the
// CodeGraph entity_class column: a _test suffix on the file, or a Test/test
// prefix on the entity itself.
func looksLikeTest(filePath, name string) bool {
	return hasSuffixFold(filePath, "_test.go") || hasSuffixFold(filePath, "_test.py") ||
		hasPrefixFold(name, "test_") || hasPrefixFold(name, "Test")
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return equalFold(s[len(s)-len(suffix):], suffix)
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return equalFold(s[:len(prefix)], prefix)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// LoadOldEntities fetches the existing CodeGraph rows for filePath from the
// store, in the shape the matcher needs.
func LoadOldEntities(ctx context.Context, store *storage.Store, filePath string) ([]matcher.OldEntity, error) {
	escaped := storage.EscapeForString(filePath)
	datalog := fmt.Sprintf(`?[isgl1_key, name, line_start, line_end, content_hash] :=
		*code_graph{isgl1_key, name, file_path, line_start, line_end, content_hash}, file_path = '%s'`, escaped)
	rows, err := store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	old := make([]matcher.OldEntity, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		if len(row) < 5 {
			continue
		}
		key, _ := row[0].(string)
		name, _ := row[1].(string)
		start, _ := row[2].(float64)
		end, _ := row[3].(float64)
		hash, _ := row[4].(string)
		old = append(old, matcher.OldEntity{
			Key: key, Name: name, FilePath: filePath,
			LineRange:   matcher.LineRange{Start: int(start), End: int(end)},
			ContentHash: hash,
		})
	}
	return old, nil
}

// nowUnix returns the current Unix time in seconds.
func nowUnix() int64 { return time.Now().Unix() }
