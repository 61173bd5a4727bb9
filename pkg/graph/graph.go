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

// Package graph builds the in-memory adjacency representation the analysis
// algorithms share, and implements that family of algorithms: Tarjan SCC,
// k-core decomposition, PageRank, Brandes betweenness, Shannon entropy,
// Leiden community detection, the CK metric suite, SQALE debt scoring, DFS
// cycle detection, and coupling-based hotspot ranking.
//
// Nodes are identified by their ISGL1 v2 key string, never by pointer —
// the dependency graph is intrinsically cyclic, and representing it with
// string keys plus a side table of edges (rather than in-memory
// back-pointers) avoids ownership cycles and maps directly onto the
// persisted DependencyEdges relation.
package graph

// Edge is a single typed directed edge.
type Edge struct {
	From string
	To   string
	Type string
}

// AdjacencyListGraphRepresentation is a bidirectional adjacency list built
// from a flat stream of (from, to, edge_type) tuples.
type AdjacencyListGraphRepresentation struct {
	nodes map[string]struct{}
	out   map[string][]string
	in    map[string][]string
	// edgeType indexes (from, to) -> the edge type(s) seen for that pair,
	// giving O(1) amortized edge-type lookup. A pair can
	// carry more than one edge type (e.g. both Calls and Uses).
	edgeType map[[2]string][]string
	edges    []Edge
}

// New builds a representation from a flat edge stream. Nodes appearing only
// as a To are auto-inserted.
func New(edges []Edge) *AdjacencyListGraphRepresentation {
	g := &AdjacencyListGraphRepresentation{
		nodes:    make(map[string]struct{}),
		out:      make(map[string][]string),
		in:       make(map[string][]string),
		edgeType: make(map[[2]string][]string),
		edges:    edges,
	}
	for _, e := range edges {
		g.addNode(e.From)
		g.addNode(e.To)
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
		key := [2]string{e.From, e.To}
		g.edgeType[key] = append(g.edgeType[key], e.Type)
	}
	return g
}

func (g *AdjacencyListGraphRepresentation) addNode(key string) {
	g.nodes[key] = struct{}{}
}

// Nodes returns all node keys in unspecified order.
func (g *AdjacencyListGraphRepresentation) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// NodeCount returns the number of distinct nodes.
func (g *AdjacencyListGraphRepresentation) NodeCount() int { return len(g.nodes) }

// HasNode reports whether key is a known node.
func (g *AdjacencyListGraphRepresentation) HasNode(key string) bool {
	_, ok := g.nodes[key]
	return ok
}

// OutNeighbors returns the outgoing neighbors of key (may contain duplicates
// if a multigraph edge exists; callers that need a set should dedupe).
func (g *AdjacencyListGraphRepresentation) OutNeighbors(key string) []string { return g.out[key] }

// InNeighbors returns the incoming neighbors of key.
func (g *AdjacencyListGraphRepresentation) InNeighbors(key string) []string { return g.in[key] }

// OutDegree is O(1).
func (g *AdjacencyListGraphRepresentation) OutDegree(key string) int { return len(g.out[key]) }

// InDegree is O(1).
func (g *AdjacencyListGraphRepresentation) InDegree(key string) int { return len(g.in[key]) }

// EdgeTypes returns the edge type(s) recorded between from and to.
func (g *AdjacencyListGraphRepresentation) EdgeTypes(from, to string) []string {
	return g.edgeType[[2]string{from, to}]
}

// Edges returns the original flat edge stream the graph was built from.
func (g *AdjacencyListGraphRepresentation) Edges() []Edge { return g.edges }
