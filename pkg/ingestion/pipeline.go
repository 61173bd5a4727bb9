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
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/codegraph/internal/metrics"
	"github.com/kraklabs/codegraph/pkg/extract"
	"github.com/kraklabs/codegraph/pkg/storage"
)

// Report summarizes a whole-tree ingestion run.
type Report struct {
	FilesIndexed     int
	FilesSkipped     int
	EntitiesUpserted int
	EdgesUpserted    int
	UnresolvedCalls  int
	Errors           []string
}

// Config configures a Pipeline run.
type Config struct {
	WorkspaceRoot          string
	ExcludeDirs            []string
	MaxFileSize            int64
	ParallelWorkers        int
	PositionToleranceLines int
	ShowProgress           bool
}

// Pipeline is the whole-tree ingestion orchestrator: walk, extract (in
// parallel, bounded by Config.ParallelWorkers), resolve cross-file call
// edges against a project-wide symbol table, and batch-write to Store.
type Pipeline struct {
	Store      *storage.Store
	TreeSitter extract.Extractor
	Pattern    extract.Extractor
	Logger     *slog.Logger
	Metrics    *metrics.Registry
}

// NewPipeline builds a Pipeline with the standard extractor pair.
func NewPipeline(store *storage.Store, reg *metrics.Registry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Store:      store,
		TreeSitter: extract.NewTreeSitterExtractor(),
		Pattern:    extract.NewPatternExtractor(),
		Logger:     logger,
		Metrics:    reg,
	}
}

func (p *Pipeline) extractorFor(language string) extract.Extractor {
	if p.TreeSitter.Supports(language) {
		return p.TreeSitter
	}
	return p.Pattern
}

// Run performs a full (non-incremental) index of every file under
// cfg.WorkspaceRoot: walk, parse in parallel, resolve cross-file calls
// against the whole project's symbol table, and batch-upsert into the
// store.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Report, error) {
	excludeDirs := cfg.ExcludeDirs
	if len(excludeDirs) == 0 {
		excludeDirs = []string{"target", "node_modules", ".git", "build", "dist"}
	}

	discovered, err := Walk(cfg.WorkspaceRoot, WalkOptions{ExcludeDirs: excludeDirs, MaxFileSize: cfg.MaxFileSize})
	if err != nil {
		return nil, err
	}

	workers := cfg.ParallelWorkers
	if workers <= 0 {
		workers = 4
	}

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress {
		bar = progressbar.NewOptions(len(discovered),
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	results := make([]*FileResult, len(discovered))
	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	toleranceLines := cfg.PositionToleranceLines
	if toleranceLines <= 0 {
		toleranceLines = 10
	}

	for i, df := range discovered {
		i, df := i, df
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, readErr := os.ReadFile(df.FullPath)
			if readErr != nil {
				mu.Lock()
				report.FilesSkipped++
				report.Errors = append(report.Errors, df.Path+": "+readErr.Error())
				mu.Unlock()
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil
			}
			ext := p.extractorFor(df.Language)
			fr, procErr := ProcessFile(ext, df.Path, cfg.WorkspaceRoot, df.Language, content, nil, toleranceLines, nowUnix())
			mu.Lock()
			if procErr != nil {
				report.FilesSkipped++
				report.Errors = append(report.Errors, df.Path+": "+procErr.Error())
				if p.Metrics != nil {
					p.Metrics.FilesSkipped.WithLabelValues("parse_error").Inc()
				}
			} else {
				results[i] = fr
				report.FilesIndexed++
				if p.Metrics != nil {
					p.Metrics.FilesIndexed.Inc()
				}
			}
			mu.Unlock()
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	symbols := make(map[string]string) // simple name -> first-seen key, project-wide
	var allEntities []storage.CodeEntity
	var allEdges []storage.DependencyEdge
	var typeCandidates, methodCandidates []extract.Candidate

	for _, fr := range results {
		if fr == nil {
			continue
		}
		allEntities = append(allEntities, fr.Entities...)
		allEdges = append(allEdges, fr.Edges...)
		for _, e := range fr.Entities {
			if _, exists := symbols[e.Name]; !exists {
				symbols[e.Name] = e.ISGL1Key
			}
		}
		for _, c := range fr.Candidates {
			switch c.EntityType {
			case "trait":
				typeCandidates = append(typeCandidates, c)
			case "method":
				methodCandidates = append(methodCandidates, c)
			}
		}
	}

	for _, fr := range results {
		if fr == nil {
			continue
		}
		for _, u := range fr.Unresolved {
			toKey, ok := symbols[u.CalleeName]
			if !ok {
				toKey = storage.UnresolvedSentinel(u.CalleeName)
				report.UnresolvedCalls++
			}
			allEdges = append(allEdges, storage.DependencyEdge{
				FromKey: u.FromKey, ToKey: toKey, EdgeType: "Calls",
			})
		}
	}

	for _, impl := range extract.BuildImplementsIndex(typeCandidates, methodCandidates) {
		fromKey, fromOK := symbols[impl.TypeName]
		toKey, toOK := symbols[impl.InterfaceName]
		if fromOK && toOK {
			allEdges = append(allEdges, storage.DependencyEdge{FromKey: fromKey, ToKey: toKey, EdgeType: "Implements"})
		}
	}

	for _, e := range allEntities {
		if err := p.Store.UpsertEntity(ctx, e); err != nil {
			return report, err
		}
		report.EntitiesUpserted++
	}
	if err := p.Store.UpsertEdges(ctx, allEdges); err != nil {
		return report, err
	}
	report.EdgesUpserted = len(allEdges)

	return report, nil
}
