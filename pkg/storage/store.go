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

// Package storage implements the Store Adapter: the two persisted
// relations CodeGraph and DependencyEdges, schema creation, typed
// upsert/delete with cascading deletes, raw Datalog queries for analysis,
// and the string-escaping discipline query construction by interpolation
// requires.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/metrics"
	cozo "github.com/kraklabs/codegraph/pkg/cozodb"
)

// CodeEntity is the row shape of the CodeGraph relation.
type CodeEntity struct {
	ISGL1Key            string
	Name                string
	EntityType          string
	EntityClass         string // CODE or TEST
	FilePath            string
	LineStart           int
	LineEnd             int
	Language            string
	CurrentCode         string
	ContentHash         string
	BirthTimestamp      int64
	SemanticPath        string
	InterfaceSignature  string // best-effort signature string, e.g. "func (r *Type) Name(...) error"
	Visibility          string
	ModulePath          string
	Documentation       string
	RootSubfolderL1     string
	RootSubfolderL2     string
	LastModified        int64
	ReceiverType        string // receiver base type name for a Go method entity; empty otherwise
}

// DependencyEdge is the row shape of the DependencyEdges relation.
type DependencyEdge struct {
	FromKey        string
	ToKey          string
	EdgeType       string
	SourceLocation string
}

// UnresolvedSentinel formats the unresolved-reference target sentinel key
// for a symbolic name that did not resolve against any entity parsed in
// the same pass.
func UnresolvedSentinel(name string) string {
	return fmt.Sprintf("unresolved-reference:0-0:%s", name)
}

// EscapeForString escapes backslashes and single quotes for interpolation
// into a Datalog string literal, matching cozo_escaping_tests.rs exactly:
// backslashes are doubled first, then single quotes are escaped, so a
// literal backslash is never re-escaped by the quote pass.
func EscapeForString(input string) string {
	out := strings.ReplaceAll(input, `\`, `\\`)
	out = strings.ReplaceAll(out, `'`, `\'`)
	return out
}

// Config configures the embedded store.
type Config struct {
	// DBPath is "mem", "rocksdb:<path>", or "sqlite:<path>".
	DBPath string
}

func (c Config) engineAndPath() (engine, path string) {
	if c.DBPath == "" || c.DBPath == "mem" {
		return "mem", ""
	}
	if idx := strings.IndexByte(c.DBPath, ':'); idx > 0 {
		return c.DBPath[:idx], c.DBPath[idx+1:]
	}
	return "mem", ""
}

// Store wraps an embedded CozoDB instance behind the CodeGraph/
// DependencyEdges schema. No caller may hold the state lock across an
// await to the store: callers clone what they need under mu, release it,
// and only then call into db.
type Store struct {
	mu      sync.RWMutex
	db      *cozo.CozoDB
	closed  bool
	metrics *metrics.Registry
}

// Open creates or attaches to the configured embedded store and ensures
// its schema exists.
func Open(cfg Config, reg *metrics.Registry) (*Store, error) {
	engine, path := cfg.engineAndPath()
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, kerrors.NewInternalError(err)
		}
	}
	db, err := cozo.New(engine, path, nil)
	if err != nil {
		return nil, kerrors.NewStoreFailureError(err)
	}
	s := &Store{db: &db, metrics: reg}
	if err := s.EnsureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// handle clones a reference to the underlying db under the read lock, then
// releases the lock before the caller awaits any store call.
func (s *Store) handle() (*cozo.CozoDB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.db == nil {
		return nil, kerrors.NewDisconnectedError()
	}
	return s.db, nil
}

func (s *Store) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.StoreQueryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.db.Close()
	return nil
}

// EnsureSchema creates the CodeGraph and DependencyEdges relations (and
// the small project-metadata relation the incremental reindexer uses for
// its hash cache) if they don't already exist. Idempotent.
func (s *Store) EnsureSchema() error {
	tables := []string{
		`:create code_graph {
			isgl1_key: String
			=>
			name: String,
			entity_type: String,
			entity_class: String,
			file_path: String,
			line_start: Int,
			line_end: Int,
			language: String,
			current_code: String,
			content_hash: String,
			birth_timestamp: Int,
			semantic_path: String,
			interface_signature: String default '',
			visibility: String default '',
			module_path: String default '',
			documentation: String default '',
			root_subfolder_l1: String,
			root_subfolder_l2: String,
			last_modified: Int,
			receiver_type: String default '',
		}`,
		`:create dependency_edges {
			from_key: String,
			to_key: String,
			edge_type: String
			=>
			source_location: String,
		}`,
		`:create project_meta { key: String => value: String }`,
	}

	handle, err := s.handle()
	if err != nil {
		return err
	}
	for _, table := range tables {
		if _, err := handle.Run(table, nil); err != nil {
			msg := err.Error()
			if strings.Contains(msg, "already exists") || strings.Contains(msg, "conflicts with an existing one") {
				continue
			}
			return kerrors.NewStoreFailureError(err)
		}
	}
	return nil
}

// UpsertEntity writes or overwrites e in the CodeGraph relation.
func (s *Store) UpsertEntity(ctx context.Context, e CodeEntity) error {
	defer s.observe("upsert_entity", time.Now())
	handle, err := s.handle()
	if err != nil {
		return err
	}
	params := map[string]any{
		"isgl1_key": e.ISGL1Key, "name": e.Name, "entity_type": e.EntityType,
		"entity_class": e.EntityClass, "file_path": e.FilePath,
		"line_start": e.LineStart, "line_end": e.LineEnd, "language": e.Language,
		"current_code": e.CurrentCode, "content_hash": e.ContentHash,
		"birth_timestamp": e.BirthTimestamp, "semantic_path": e.SemanticPath,
		"interface_signature": e.InterfaceSignature, "visibility": e.Visibility,
		"module_path": e.ModulePath, "documentation": e.Documentation,
		"root_subfolder_l1": e.RootSubfolderL1, "root_subfolder_l2": e.RootSubfolderL2,
		"last_modified": e.LastModified, "receiver_type": e.ReceiverType,
	}
	script := `?[isgl1_key, name, entity_type, entity_class, file_path, line_start, line_end,
		language, current_code, content_hash, birth_timestamp, semantic_path,
		interface_signature, visibility, module_path, documentation,
		root_subfolder_l1, root_subfolder_l2, last_modified, receiver_type] <- [[
		$isgl1_key, $name, $entity_type, $entity_class, $file_path, $line_start, $line_end,
		$language, $current_code, $content_hash, $birth_timestamp, $semantic_path,
		$interface_signature, $visibility, $module_path, $documentation,
		$root_subfolder_l1, $root_subfolder_l2, $last_modified, $receiver_type]]
		:put code_graph {isgl1_key, name, entity_type, entity_class, file_path, line_start, line_end,
		language, current_code, content_hash, birth_timestamp, semantic_path,
		interface_signature, visibility, module_path, documentation,
		root_subfolder_l1, root_subfolder_l2, last_modified, receiver_type}`
	if _, err := handle.Run(script, params); err != nil {
		return kerrors.NewStoreFailureError(err)
	}
	if s.metrics != nil {
		s.metrics.EntitiesUpserted.Inc()
	}
	return nil
}

// DeleteEntity removes key from CodeGraph and cascades to every outgoing
// edge in DependencyEdges.
func (s *Store) DeleteEntity(ctx context.Context, key string) error {
	defer s.observe("delete_entity", time.Now())
	handle, err := s.handle()
	if err != nil {
		return err
	}
	if err := s.DeleteEdgesFrom(ctx, key); err != nil {
		return err
	}
	escaped := EscapeForString(key)
	script := fmt.Sprintf(`?[isgl1_key] := *code_graph{isgl1_key}, isgl1_key = '%s' :rm code_graph {isgl1_key}`, escaped)
	if _, err := handle.Run(script, nil); err != nil {
		return kerrors.NewStoreFailureError(err)
	}
	return nil
}

// UpsertEdges writes or overwrites edges in DependencyEdges.
func (s *Store) UpsertEdges(ctx context.Context, edges []DependencyEdge) error {
	if len(edges) == 0 {
		return nil
	}
	defer s.observe("upsert_edges", time.Now())
	handle, err := s.handle()
	if err != nil {
		return err
	}
	rows := make([]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []any{e.FromKey, e.ToKey, e.EdgeType, e.SourceLocation})
	}
	script := `?[from_key, to_key, edge_type, source_location] <- $rows
		:put dependency_edges {from_key, to_key, edge_type, source_location}`
	if _, err := handle.Run(script, map[string]any{"rows": rows}); err != nil {
		return kerrors.NewStoreFailureError(err)
	}
	if s.metrics != nil {
		s.metrics.EdgesUpserted.Add(float64(len(edges)))
	}
	return nil
}

// EdgesFrom returns every DependencyEdges row whose from_key is key, for
// callers that need to diff a node's outgoing edges before replacing them.
func (s *Store) EdgesFrom(ctx context.Context, key string) ([]DependencyEdge, error) {
	handle, err := s.handle()
	if err != nil {
		return nil, err
	}
	escaped := EscapeForString(key)
	script := fmt.Sprintf(`?[from_key, to_key, edge_type, source_location] :=
		*dependency_edges{from_key, to_key, edge_type, source_location}, from_key = '%s'`, escaped)
	rows, err := handle.Run(script, nil)
	if err != nil {
		return nil, kerrors.NewStoreFailureError(err)
	}
	out := make([]DependencyEdge, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		out = append(out, DependencyEdge{
			FromKey:        asString(row[0]),
			ToKey:          asString(row[1]),
			EdgeType:       asString(row[2]),
			SourceLocation: asString(row[3]),
		})
	}
	return out, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// DeleteEdgesFrom removes every DependencyEdges row whose from_key is key.
func (s *Store) DeleteEdgesFrom(ctx context.Context, key string) error {
	handle, err := s.handle()
	if err != nil {
		return err
	}
	escaped := EscapeForString(key)
	script := fmt.Sprintf(`?[from_key, to_key, edge_type] := *dependency_edges{from_key, to_key, edge_type}, from_key = '%s'
		:rm dependency_edges {from_key, to_key, edge_type}`, escaped)
	if _, err := handle.Run(script, nil); err != nil {
		return kerrors.NewStoreFailureError(err)
	}
	return nil
}

// RawQuery runs an arbitrary read-only Datalog query for the analysis
// engine.
func (s *Store) RawQuery(ctx context.Context, datalog string) (cozo.NamedRows, error) {
	defer s.observe("raw_query", time.Now())
	handle, err := s.handle()
	if err != nil {
		return cozo.NamedRows{}, err
	}
	rows, err := handle.RunReadOnly(datalog, nil)
	if err != nil {
		return cozo.NamedRows{}, kerrors.NewStoreFailureError(err)
	}
	return rows, nil
}

// GetProjectMeta reads a single project_meta value, returning "" if unset.
func (s *Store) GetProjectMeta(ctx context.Context, key string) (string, error) {
	handle, err := s.handle()
	if err != nil {
		return "", err
	}
	rows, err := handle.RunReadOnly(
		`?[value] := *project_meta{key: $key, value} :limit 1`,
		map[string]any{"key": key})
	if err != nil {
		return "", kerrors.NewStoreFailureError(err)
	}
	if len(rows.Rows) == 0 {
		return "", nil
	}
	v, _ := rows.Rows[0][0].(string)
	return v, nil
}

// SetProjectMeta writes a single project_meta value.
func (s *Store) SetProjectMeta(ctx context.Context, key, value string) error {
	handle, err := s.handle()
	if err != nil {
		return err
	}
	_, err = handle.Run(`?[key, value] <- [[$key, $value]] :put project_meta {key, value}`,
		map[string]any{"key": key, "value": value})
	if err != nil {
		return kerrors.NewStoreFailureError(err)
	}
	return nil
}
