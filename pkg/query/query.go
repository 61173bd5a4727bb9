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

// Package query implements the operation contracts a transport (HTTP, CLI)
// calls to answer architectural questions against the persisted code graph.
// Every analysis operation does a single-shot read of the edge relation,
// builds a pkg/graph representation, and runs the requested algorithm,
// sharing a single store handle across concurrent callers.
package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/kraklabs/codegraph/pkg/storage"
)

// Service answers every query operation against a Store.
type Service struct {
	Store     *storage.Store
	startedAt time.Time
}

// New builds a Service, recording its own start time for the health
// operation's uptime figure.
func New(store *storage.Store) *Service {
	return &Service{Store: store, startedAt: time.Now()}
}

// HealthReport is the health operation's output.
type HealthReport struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health reports process liveness and uptime.
func (s *Service) Health() HealthReport {
	return HealthReport{Status: "ok", UptimeSeconds: int64(time.Since(s.startedAt).Seconds())}
}

// Stats is the stats operation's output.
type Stats struct {
	CodeCount  int      `json:"code_count"`
	TestCount  int      `json:"test_count"`
	EdgesCount int      `json:"edges_count"`
	Languages  []string `json:"languages"`
	DBPath     string   `json:"db_path"`
}

// Stats reports aggregate index counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.Store.RawQuery(ctx, `?[entity_class, language] := *code_graph{entity_class, language}`)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{}
	langSet := make(map[string]bool)
	for _, row := range rows.Rows {
		class, _ := row[0].(string)
		lang, _ := row[1].(string)
		if class == "TEST" {
			stats.TestCount++
		} else {
			stats.CodeCount++
		}
		if lang != "" {
			langSet[lang] = true
		}
	}
	for lang := range langSet {
		stats.Languages = append(stats.Languages, lang)
	}
	sort.Strings(stats.Languages)

	edgeRows, err := s.Store.RawQuery(ctx, `?[count(f)] := *dependency_edges{from_key: f}`)
	if err != nil {
		return Stats{}, err
	}
	if len(edgeRows.Rows) > 0 {
		if cnt, ok := edgeRows.Rows[0][0].(float64); ok {
			stats.EdgesCount = int(cnt)
		}
	}
	return stats, nil
}

// EntitySummary is the row shape for the list-entities operation.
type EntitySummary struct {
	Key         string `json:"key"`
	FilePath    string `json:"file_path"`
	EntityType  string `json:"entity_type"`
	EntityClass string `json:"entity_class"`
	Language    string `json:"language"`
}

// Scope filters entities by their root_subfolder classification columns.
type Scope struct {
	L1 string
	L2 string
}

// ListEntities returns entities optionally filtered by entity_type and
// scope. An empty entityType matches every type.
func (s *Service) ListEntities(ctx context.Context, entityType string, scope Scope) ([]EntitySummary, error) {
	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	var conds []string
	if entityType != "" {
		conds = append(conds, fmt.Sprintf("entity_type = %s", quote(entityType)))
	}
	if scope.L1 != "" {
		conds = append(conds, fmt.Sprintf("root_subfolder_l1 = %s", quote(scope.L1)))
	}
	if scope.L2 != "" {
		conds = append(conds, fmt.Sprintf("root_subfolder_l2 = %s", quote(scope.L2)))
	}
	datalog := "?[isgl1_key, file_path, entity_type, entity_class, language] := *code_graph{isgl1_key, file_path, entity_type, entity_class, language, root_subfolder_l1, root_subfolder_l2}"
	if len(conds) > 0 {
		datalog += ", " + strings.Join(conds, ", ")
	}
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	out := make([]EntitySummary, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		out = append(out, EntitySummary{
			Key:         str(row[0]),
			FilePath:    str(row[1]),
			EntityType:  str(row[2]),
			EntityClass: str(row[3]),
			Language:    str(row[4]),
		})
	}
	return out, nil
}

// Detail returns the full stored record for key, or a NotFound error.
func (s *Service) Detail(ctx context.Context, key string, scope Scope) (*storage.CodeEntity, error) {
	if key == "" {
		return nil, kerrors.NewBadRequestError("key must not be empty")
	}
	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	escaped := storage.EscapeForString(key)
	datalog := fmt.Sprintf(`?[isgl1_key, name, entity_type, entity_class, file_path, line_start, line_end,
		language, current_code, content_hash, birth_timestamp, semantic_path, interface_signature,
		visibility, module_path, documentation, root_subfolder_l1, root_subfolder_l2, last_modified] :=
		*code_graph{isgl1_key, name, entity_type, entity_class, file_path, line_start, line_end,
		language, current_code, content_hash, birth_timestamp, semantic_path, interface_signature,
		visibility, module_path, documentation, root_subfolder_l1, root_subfolder_l2, last_modified},
		isgl1_key = '%s'`, escaped)
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	if len(rows.Rows) == 0 {
		return nil, kerrors.NewNotFoundError("entity %q not found", key)
	}
	row := rows.Rows[0]
	birth, _ := row[10].(float64)
	lineStart, _ := row[5].(float64)
	lineEnd, _ := row[6].(float64)
	lastMod, _ := row[18].(float64)
	e := &storage.CodeEntity{
		ISGL1Key:            str(row[0]),
		Name:                str(row[1]),
		EntityType:          str(row[2]),
		EntityClass:         str(row[3]),
		FilePath:            str(row[4]),
		LineStart:           int(lineStart),
		LineEnd:             int(lineEnd),
		Language:            str(row[7]),
		CurrentCode:         str(row[8]),
		ContentHash:         str(row[9]),
		BirthTimestamp:      int64(birth),
		SemanticPath:        str(row[11]),
		InterfaceSignature:  str(row[12]),
		Visibility:          str(row[13]),
		ModulePath:          str(row[14]),
		Documentation:       str(row[15]),
		RootSubfolderL1:     str(row[16]),
		RootSubfolderL2:     str(row[17]),
		LastModified:        int64(lastMod),
	}
	if scope.L1 != "" && e.RootSubfolderL1 != scope.L1 {
		return nil, kerrors.NewNotFoundError("entity %q not found in scope %s/%s", key, scope.L1, scope.L2)
	}
	return e, nil
}

// FuzzySearch returns entities whose key contains q, case-insensitively.
func (s *Service) FuzzySearch(ctx context.Context, q string) ([]EntitySummary, error) {
	if q == "" {
		return nil, kerrors.NewBadRequestError("q must not be empty")
	}
	pattern := "(?i)" + regexpQuoteMeta(q)
	datalog := fmt.Sprintf(`?[isgl1_key, file_path, entity_type, entity_class, language] :=
		*code_graph{isgl1_key, file_path, entity_type, entity_class, language}, regex_matches(isgl1_key, "%s")`, pattern)
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	out := make([]EntitySummary, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		out = append(out, EntitySummary{
			Key:         str(row[0]),
			FilePath:    str(row[1]),
			EntityType:  str(row[2]),
			EntityClass: str(row[3]),
			Language:    str(row[4]),
		})
	}
	return out, nil
}

// EdgeRecord is a single dependency edge row.
type EdgeRecord struct {
	FromKey        string `json:"from_key"`
	ToKey          string `json:"to_key"`
	EdgeType       string `json:"edge_type"`
	SourceLocation string `json:"source_location,omitempty"`
}

// ReverseCallers returns edges whose to_key is entity.
func (s *Service) ReverseCallers(ctx context.Context, entity string) ([]EdgeRecord, error) {
	if entity == "" {
		return nil, kerrors.NewBadRequestError("entity must not be empty")
	}
	escaped := storage.EscapeForString(entity)
	datalog := fmt.Sprintf(`?[from_key, to_key, edge_type, source_location] :=
		*dependency_edges{from_key, to_key, edge_type, source_location}, to_key = '%s'`, escaped)
	return s.edgeRows(ctx, datalog)
}

// ForwardCallees returns edges whose from_key is entity.
func (s *Service) ForwardCallees(ctx context.Context, entity string) ([]EdgeRecord, error) {
	if entity == "" {
		return nil, kerrors.NewBadRequestError("entity must not be empty")
	}
	escaped := storage.EscapeForString(entity)
	datalog := fmt.Sprintf(`?[from_key, to_key, edge_type, source_location] :=
		*dependency_edges{from_key, to_key, edge_type, source_location}, from_key = '%s'`, escaped)
	return s.edgeRows(ctx, datalog)
}

// ListEdgesResult is the list-edges operation's paginated output.
type ListEdgesResult struct {
	Edges []EdgeRecord `json:"edges"`
	Total int          `json:"total"`
}

// ListEdges returns a page of edges plus the total edge count.
func (s *Service) ListEdges(ctx context.Context, limit, offset int) (ListEdgesResult, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	all, err := s.edgeRows(ctx, `?[from_key, to_key, edge_type, source_location] := *dependency_edges{from_key, to_key, edge_type, source_location}`)
	if err != nil {
		return ListEdgesResult{}, err
	}
	total := len(all)
	if offset >= total {
		return ListEdgesResult{Edges: []EdgeRecord{}, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ListEdgesResult{Edges: all[offset:end], Total: total}, nil
}

func (s *Service) edgeRows(ctx context.Context, datalog string) ([]EdgeRecord, error) {
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	out := make([]EdgeRecord, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		out = append(out, EdgeRecord{
			FromKey:        str(row[0]),
			ToKey:          str(row[1]),
			EdgeType:       str(row[2]),
			SourceLocation: str(row[3]),
		})
	}
	return out, nil
}

// buildGraph reads the full edge relation once, optionally filtered by
// scope, and constructs the in-memory representation the analysis family
// shares.
func (s *Service) buildGraph(ctx context.Context, scope Scope) (*graph.AdjacencyListGraphRepresentation, error) {
	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	datalog := `?[from_key, to_key, edge_type] := *dependency_edges{from_key, to_key, edge_type}`
	if scope.L1 != "" {
		escaped := storage.EscapeForString(scope.L1)
		datalog = fmt.Sprintf(`?[from_key, to_key, edge_type] :=
			*dependency_edges{from_key, to_key, edge_type},
			*code_graph{isgl1_key: from_key, root_subfolder_l1: '%s'}`, escaped)
	}
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		edges = append(edges, graph.Edge{From: str(row[0]), To: str(row[1]), Type: str(row[2])})
	}
	return graph.New(edges), nil
}

// validateScope rejects an L1 value that names no indexed folder, returning
// candidate suggestions sharing its first letter.
func (s *Service) validateScope(ctx context.Context, scope Scope) error {
	if scope.L1 == "" {
		return nil
	}
	rows, err := s.Store.RawQuery(ctx, `?[l1] := *code_graph{root_subfolder_l1: l1}`)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(rows.Rows))
	for _, row := range rows.Rows {
		known[str(row[0])] = true
	}
	if known[scope.L1] {
		return nil
	}
	var suggestions []string
	if len(scope.L1) > 0 {
		first := scope.L1[0]
		for l1 := range known {
			if len(l1) > 0 && l1[0] == first {
				suggestions = append(suggestions, l1)
			}
		}
	}
	sort.Strings(suggestions)
	return kerrors.NewBadRequestErrorWithSuggestions(suggestions, "unknown scope %q", scope.L1)
}

// Cycles runs DFS cycle detection over the full graph.
func (s *Service) Cycles(ctx context.Context, scope Scope) ([][]string, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	return graph.DetectCycles(g), nil
}

// Hotspots ranks entities by total coupling, top N.
func (s *Service) Hotspots(ctx context.Context, top int, scope Scope) ([]graph.HotspotEntry, error) {
	if top <= 0 {
		top = 10
	}
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	return graph.ComplexityHotspotRanking(g, top), nil
}

// CentralityEntry is one ranked row of the centrality operation.
type CentralityEntry struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Centrality runs the requested method (pagerank or betweenness) and
// returns the top-N entities by score descending.
func (s *Service) Centrality(ctx context.Context, method string, top int, scope Scope) ([]CentralityEntry, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	var scores map[string]float64
	switch method {
	case "pagerank":
		scores = graph.ComputePageRankCentralityScores(g)
	case "betweenness":
		scores = graph.ComputeBetweennessCentralityScores(g)
	default:
		return nil, kerrors.NewBadRequestError("unknown centrality method %q, want pagerank or betweenness", method)
	}
	entries := make([]CentralityEntry, 0, len(scores))
	for k, v := range scores {
		entries = append(entries, CentralityEntry{Key: k, Score: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	if top > 0 && top < len(entries) {
		entries = entries[:top]
	}
	return entries, nil
}

// SCCResult is one strongly connected component with its risk classification.
type SCCResult struct {
	Nodes []string `json:"nodes"`
	Risk  string   `json:"risk"`
}

// SCC runs Tarjan's algorithm and classifies each component's risk.
func (s *Service) SCC(ctx context.Context, scope Scope) ([]SCCResult, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	comps := graph.TarjanSCC(g)
	out := make([]SCCResult, len(comps))
	for i, c := range comps {
		out[i] = SCCResult{Nodes: c.Nodes, Risk: graph.ClassifySccRiskLevel(len(c.Nodes)).String()}
	}
	return out, nil
}

// CommunityResult is the community-detection operation's output.
type CommunityResult struct {
	Communities map[string]int `json:"communities"`
	Modularity  float64        `json:"modularity"`
}

// Community runs Leiden community detection at the default resolution.
func (s *Service) Community(ctx context.Context) (CommunityResult, error) {
	g, err := s.buildGraph(ctx, Scope{})
	if err != nil {
		return CommunityResult{}, err
	}
	result := graph.LeidenCommunityDetectionClustering(g, 1.0)
	return CommunityResult{Communities: result.Community, Modularity: result.Modularity}, nil
}

// CorenessEntry is one entity's k-core decomposition result.
type CorenessEntry struct {
	Key      string `json:"key"`
	Coreness int    `json:"coreness"`
	Layer    string `json:"layer"`
}

// Coreness runs k-core decomposition over the dependency graph and
// classifies every entity into a {core, inner, outer, periphery} layer.
func (s *Service) Coreness(ctx context.Context, scope Scope) ([]CorenessEntry, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	results := graph.KCoreDecompositionLayeringAlgorithm(g)
	out := make([]CorenessEntry, 0, len(results))
	for k, r := range results {
		out = append(out, CorenessEntry{Key: k, Coreness: r.Coreness, Layer: r.Layer.String()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coreness != out[j].Coreness {
			return out[i].Coreness > out[j].Coreness
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// classBodies groups method entities under the class/struct they belong to,
// via the receiver_type column populated at extraction time, and returns
// each method's best-effort signature string for WMC weighting.
func (s *Service) classBodies(ctx context.Context, scope Scope) (map[string]*graph.ClassBody, map[string]string, map[string]string, error) {
	l1Filter := ""
	if scope.L1 != "" {
		l1Filter = fmt.Sprintf(", root_subfolder_l1: %s", quote(scope.L1))
	}
	datalog := fmt.Sprintf(`?[isgl1_key, receiver_type, interface_signature] :=
		*code_graph{isgl1_key, entity_type: "method", receiver_type, interface_signature%s},
		receiver_type != ''`, l1Filter)
	rows, err := s.Store.RawQuery(ctx, datalog)
	if err != nil {
		return nil, nil, nil, err
	}
	bodies := make(map[string]*graph.ClassBody)
	methodOwner := make(map[string]string)
	signatures := make(map[string]string)
	for _, row := range rows.Rows {
		key, receiver, sig := str(row[0]), str(row[1]), str(row[2])
		b, ok := bodies[receiver]
		if !ok {
			b = &graph.ClassBody{ClassKey: receiver}
			bodies[receiver] = b
		}
		b.Methods = append(b.Methods, key)
		methodOwner[key] = receiver
		signatures[key] = sig
	}
	return bodies, methodOwner, signatures, nil
}

// CKMetrics computes the CK suite (CBO, LCOM, RFC, WMC) for every class/
// struct with at least one extracted method. LCOM is reported relative to
// field-access data the extractor does not currently capture, so it is
// always 0 for classes with fewer than two methods and otherwise reflects
// only whether methods were ever observed sharing a tracked field — see
// pkg/graph's ClassBody.FieldAccess doc comment. WMC is weighted by each
// method's parameter count where a signature was recorded.
func (s *Service) CKMetrics(ctx context.Context, scope Scope) ([]graph.CkMetricsResult, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	bodies, methodOwner, signatures, err := s.classBodies(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]graph.CkMetricsResult, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, graph.ComputeCkMetricsSuite(g, *b, methodOwner, signatures))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Health != out[j].Health {
			return out[i].Health > out[j].Health
		}
		return out[i].ClassKey < out[j].ClassKey
	})
	return out, nil
}

// Debt runs SQALE technical-debt scoring over every entity in scope,
// weighting coupling, size, cycle membership, and (for classes) cohesion.
func (s *Service) Debt(ctx context.Context, scope Scope) ([]graph.SqaleDebtResult, error) {
	g, err := s.buildGraph(ctx, scope)
	if err != nil {
		return nil, err
	}
	cycleMembers := make(map[string]bool)
	for _, cycle := range graph.DetectCycles(g) {
		for _, k := range cycle {
			cycleMembers[k] = true
		}
	}
	bodies, methodOwner, signatures, err := s.classBodies(ctx, scope)
	if err != nil {
		return nil, err
	}
	ckByKey := make(map[string]*graph.CkMetricsResult)
	for _, b := range bodies {
		r := graph.ComputeCkMetricsSuite(g, *b, methodOwner, signatures)
		for _, m := range b.Methods {
			ckByKey[m] = &r
		}
	}
	results := graph.ComputeAllEntitiesSqale(g, cycleMembers, ckByKey)
	out := make([]graph.SqaleDebtResult, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// FolderNode is one entry of the folder-tree operation.
type FolderNode struct {
	L1          string   `json:"l1"`
	L2          []string `json:"l2"`
	EntityCount int      `json:"entity_count"`
}

// FolderTree groups entities by their root_subfolder_L1/L2 classification.
func (s *Service) FolderTree(ctx context.Context) ([]FolderNode, error) {
	rows, err := s.Store.RawQuery(ctx, `?[root_subfolder_l1, root_subfolder_l2] := *code_graph{root_subfolder_l1, root_subfolder_l2}`)
	if err != nil {
		return nil, err
	}
	l2sByL1 := make(map[string]map[string]bool)
	countByL1 := make(map[string]int)
	for _, row := range rows.Rows {
		l1 := str(row[0])
		l2 := str(row[1])
		countByL1[l1]++
		if l2sByL1[l1] == nil {
			l2sByL1[l1] = make(map[string]bool)
		}
		if l2 != "" {
			l2sByL1[l1][l2] = true
		}
	}
	l1s := make([]string, 0, len(countByL1))
	for l1 := range countByL1 {
		l1s = append(l1s, l1)
	}
	sort.Strings(l1s)
	out := make([]FolderNode, 0, len(l1s))
	for _, l1 := range l1s {
		var l2List []string
		for l2 := range l2sByL1[l1] {
			l2List = append(l2List, l2)
		}
		sort.Strings(l2List)
		out = append(out, FolderNode{L1: l1, L2: l2List, EntityCount: countByL1[l1]})
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func quote(s string) string {
	return "'" + storage.EscapeForString(s) + "'"
}

// regexpQuoteMeta escapes CozoScript regex metacharacters in a user-supplied
// fuzzy-search term so the query performs a literal, case-insensitive
// substring match rather than treating q as a pattern.
func regexpQuoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), `"`, `\"`)
}

// ParseTop parses a top/limit query parameter, falling back to def when s is
// empty or invalid.
func ParseTop(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
