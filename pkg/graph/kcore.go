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

package graph

// CoreLayer classifies a node's k-core coreness into a coarse layer.
type CoreLayer int

const (
	// CorePeriphery: coreness 0.
	CorePeriphery CoreLayer = iota
	// CoreOuter: low coreness.
	CoreOuter
	// CoreInner: moderate coreness.
	CoreInner
	// CoreCore: high coreness — densely interconnected.
	CoreCore
)

func (c CoreLayer) String() string {
	switch c {
	case CoreOuter:
		return "outer"
	case CoreInner:
		return "inner"
	case CoreCore:
		return "core"
	default:
		return "periphery"
	}
}

// ClassifyCorenessLayer buckets a raw coreness value relative to the
// maximum observed coreness in the graph.
func ClassifyCorenessLayer(coreness, maxCoreness int) CoreLayer {
	if coreness == 0 || maxCoreness == 0 {
		return CorePeriphery
	}
	ratio := float64(coreness) / float64(maxCoreness)
	switch {
	case ratio >= 0.75:
		return CoreCore
	case ratio >= 0.4:
		return CoreInner
	default:
		return CoreOuter
	}
}

// KCoreResult pairs a node's coreness with its derived layer.
type KCoreResult struct {
	Coreness int
	Layer    CoreLayer
}

// KCoreDecompositionLayeringAlgorithm runs the Batagelj–Zaversnik peeling
// algorithm over the undirected projection of g (a node's degree is the
// size of its combined in+out neighbor set), assigning each node its
// coreness layer.
func KCoreDecompositionLayeringAlgorithm(g *AdjacencyListGraphRepresentation) map[string]KCoreResult {
	nodes := g.Nodes()
	adj := make(map[string]map[string]bool, len(nodes))
	for _, n := range nodes {
		adj[n] = make(map[string]bool)
	}
	for _, e := range g.edges {
		adj[e.From][e.To] = true
		adj[e.To][e.From] = true
	}

	degree := make(map[string]int, len(nodes))
	remaining := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		degree[n] = len(adj[n])
		remaining[n] = true
	}

	coreness := make(map[string]int, len(nodes))
	k := 0
	for len(remaining) > 0 {
		// find the remaining node with minimum degree
		minNode := ""
		minDeg := -1
		for n := range remaining {
			if minDeg < 0 || degree[n] < minDeg {
				minDeg = degree[n]
				minNode = n
			}
		}
		if minDeg > k {
			k = minDeg
		}
		coreness[minNode] = k
		delete(remaining, minNode)
		for neighbor := range adj[minNode] {
			if remaining[neighbor] {
				degree[neighbor]--
			}
		}
	}

	maxCoreness := 0
	for _, c := range coreness {
		if c > maxCoreness {
			maxCoreness = c
		}
	}

	result := make(map[string]KCoreResult, len(nodes))
	for _, n := range nodes {
		c := coreness[n]
		result[n] = KCoreResult{Coreness: c, Layer: ClassifyCorenessLayer(c, maxCoreness)}
	}
	return result
}
