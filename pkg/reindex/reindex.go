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

// Package reindex implements the incremental single-file reindexer state
// machine: Request -> Hash -> Parse -> Match -> Apply -> Report. A per-path
// mutex serializes concurrent reindex_file calls for the same path so a
// rapid sequence of watcher events can never race.
package reindex

import (
	"context"
	"os"
	"sync"
	"time"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/metrics"
	"github.com/kraklabs/codegraph/pkg/extract"
	"github.com/kraklabs/codegraph/pkg/identity"
	"github.com/kraklabs/codegraph/pkg/ingestion"
	"github.com/kraklabs/codegraph/pkg/matcher"
	"github.com/kraklabs/codegraph/pkg/storage"
)

// Outcome reports what a single reindex_file call did.
type Outcome struct {
	Path             string        `json:"path"`
	Unchanged        bool          `json:"unchanged"` // content hash matched the cached hash; no-op
	Deleted          bool          `json:"deleted"`   // file no longer exists on disk; entities removed
	EntitiesBefore   int           `json:"entities_before"`
	EntitiesAfter    int           `json:"entities_after"`
	EntitiesUpserted int           `json:"entities_upserted"`
	EntitiesAdded    int           `json:"entities_added"`
	EntitiesRemoved  int           `json:"entities_removed"`
	EdgesAdded       int           `json:"edges_added"`
	EdgesRemoved     int           `json:"edges_removed"`
	EdgesUpserted    int           `json:"edges_upserted"`
	HashChanged      bool          `json:"hash_changed"` // any entity's content_hash differs from what was stored
	ContentMatches   int           `json:"content_matches"`
	PositionMatches  int           `json:"position_matches"`
	NewEntities      int           `json:"new_entities"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	Duration         time.Duration `json:"-"`
}

// Reindexer drives the per-file incremental state machine against a Store.
type Reindexer struct {
	Store          *storage.Store
	TreeSitter     extract.Extractor
	Pattern        extract.Extractor
	Metrics        *metrics.Registry
	WorkspaceRoot  string
	ToleranceLines int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a Reindexer.
func New(store *storage.Store, reg *metrics.Registry, workspaceRoot string, toleranceLines int) *Reindexer {
	if toleranceLines <= 0 {
		toleranceLines = 10
	}
	return &Reindexer{
		Store:          store,
		TreeSitter:     extract.NewTreeSitterExtractor(),
		Pattern:        extract.NewPatternExtractor(),
		Metrics:        reg,
		WorkspaceRoot:  workspaceRoot,
		ToleranceLines: toleranceLines,
		locks:          make(map[string]*sync.Mutex),
	}
}

func (r *Reindexer) pathLock(path string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[path]
	if !ok {
		l = &sync.Mutex{}
		r.locks[path] = l
	}
	return l
}

func (r *Reindexer) extractorFor(language string) extract.Extractor {
	if r.TreeSitter.Supports(language) {
		return r.TreeSitter
	}
	return r.Pattern
}

// ReindexFile runs the full Request -> Hash -> Parse -> Match -> Apply
// cycle for path (workspace-relative) given its resolved language.
func (r *Reindexer) ReindexFile(ctx context.Context, path, fullPath, language string) (*Outcome, error) {
	lock := r.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	outcome := &Outcome{Path: path}
	defer func() {
		outcome.Duration = time.Since(start)
		outcome.ProcessingTimeMs = outcome.Duration.Milliseconds()
		if r.Metrics != nil {
			r.Metrics.ReindexDuration.Observe(outcome.Duration.Seconds())
		}
	}()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			removed, delErr := r.deleteFile(ctx, path)
			if delErr != nil {
				return nil, delErr
			}
			outcome.Deleted = true
			outcome.EntitiesRemoved = removed
			return outcome, nil
		}
		return nil, kerrors.NewInternalError(err)
	}

	fileHash := identity.ContentHash(string(content))
	cachedHash, err := r.Store.GetProjectMeta(ctx, "file_hash:"+path)
	if err != nil {
		return nil, err
	}
	if cachedHash == fileHash {
		outcome.Unchanged = true
		return outcome, nil
	}

	oldEntities, err := ingestion.LoadOldEntities(ctx, r.Store, path)
	if err != nil {
		return nil, err
	}
	oldKeys := make(map[string]bool, len(oldEntities))
	for _, e := range oldEntities {
		oldKeys[e.Key] = true
	}
	outcome.EntitiesBefore = len(oldEntities)

	ext := r.extractorFor(language)
	result, err := ingestion.ProcessFile(ext, path, r.WorkspaceRoot, language, content, oldEntities, r.ToleranceLines, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	// entities whose key survived from the old set are already present;
	// anything in oldKeys not reused by the new candidate set must be
	// deleted (its underlying source range/content no longer exists).
	// changedKeys holds the keys whose content actually differs from what
	// was stored (a rewrite or a brand new entity) -- a ContentMatch entity's
	// code, and therefore its outgoing edges, is byte-identical to before.
	keptKeys := make(map[string]bool, len(result.Entities))
	changedKeys := make(map[string]bool, len(result.Entities))
	for i, e := range result.Entities {
		keptKeys[e.ISGL1Key] = true
		switch result.MatchKinds[i] {
		case matcher.ContentMatch:
			outcome.ContentMatches++
		case matcher.PositionMatch:
			outcome.PositionMatches++
			changedKeys[e.ISGL1Key] = true
		default:
			outcome.NewEntities++
			changedKeys[e.ISGL1Key] = true
		}
	}
	outcome.EntitiesAdded = outcome.NewEntities

	for key := range oldKeys {
		if !keptKeys[key] {
			removed, err := r.Store.EdgesFrom(ctx, key)
			if err != nil {
				return nil, err
			}
			if err := r.Store.DeleteEntity(ctx, key); err != nil {
				return nil, err
			}
			outcome.EntitiesRemoved++
			outcome.EdgesRemoved += len(removed)
		}
	}

	for _, e := range result.Entities {
		if err := r.Store.UpsertEntity(ctx, e); err != nil {
			return nil, err
		}
		outcome.EntitiesUpserted++
	}
	outcome.EntitiesAfter = len(result.Entities)

	// Only entities whose source actually changed get their outgoing edges
	// replaced; a ContentMatch entity's call graph can't have moved along
	// with source it never rewrote, so leaving it untouched is what makes a
	// pure position rebind report a zero edge diff.
	edgesByFrom := make(map[string][]storage.DependencyEdge, len(changedKeys))
	for _, edge := range result.Edges {
		edgesByFrom[edge.FromKey] = append(edgesByFrom[edge.FromKey], edge)
	}
	var freshEdges []storage.DependencyEdge
	for key := range changedKeys {
		prior, err := r.Store.EdgesFrom(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := r.Store.DeleteEdgesFrom(ctx, key); err != nil {
			return nil, err
		}
		outcome.EdgesRemoved += len(prior)
		freshEdges = append(freshEdges, edgesByFrom[key]...)
	}
	if err := r.Store.UpsertEdges(ctx, freshEdges); err != nil {
		return nil, err
	}
	outcome.EdgesAdded = len(freshEdges)
	outcome.EdgesUpserted = len(freshEdges)
	outcome.HashChanged = len(changedKeys) > 0 || outcome.EntitiesRemoved > 0

	if err := r.Store.SetProjectMeta(ctx, "file_hash:"+path, fileHash); err != nil {
		return nil, err
	}

	return outcome, nil
}

// deleteFile removes every entity still recorded for path (the file was
// deleted from disk) and clears its cached hash.
func (r *Reindexer) deleteFile(ctx context.Context, path string) (int, error) {
	oldEntities, err := ingestion.LoadOldEntities(ctx, r.Store, path)
	if err != nil {
		return 0, err
	}
	for _, e := range oldEntities {
		if err := r.Store.DeleteEntity(ctx, e.Key); err != nil {
			return 0, err
		}
	}
	if err := r.Store.SetProjectMeta(ctx, "file_hash:"+path, ""); err != nil {
		return 0, err
	}
	return len(oldEntities), nil
}

// Validate checks that path is non-empty and language is supported by one
// of the Reindexer's extractors, returning a BadRequest error otherwise.
func (r *Reindexer) Validate(path, language string) error {
	if path == "" {
		return kerrors.NewBadRequestError("path must not be empty")
	}
	if !r.TreeSitter.Supports(language) && !r.Pattern.Supports(language) {
		return kerrors.NewBadRequestError("unsupported language %q for %s", language, path)
	}
	return nil
}
