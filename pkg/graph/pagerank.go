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

import "sort"

const (
	pageRankDamping     = 0.85
	pageRankMaxIter     = 100
	pageRankTolerance   = 1e-6
)

// ComputePageRankCentralityScores runs dampened power-iteration PageRank
// damping 0.85, up to 100 iterations, 1e-6 L1-delta
// tolerance. Dangling nodes (no outgoing edges) redistribute their mass
// uniformly across all nodes on each iteration.
func ComputePageRankCentralityScores(g *AdjacencyListGraphRepresentation) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}
	sort.Strings(nodes)

	rank := make(map[string]float64, n)
	for _, node := range nodes {
		rank[node] = 1.0 / float64(n)
	}

	outDegree := make(map[string]int, n)
	for _, node := range nodes {
		outDegree[node] = uniqueOutDegree(g, node)
	}

	for iter := 0; iter < pageRankMaxIter; iter++ {
		next := make(map[string]float64, n)
		base := (1 - pageRankDamping) / float64(n)

		danglingMass := 0.0
		for _, node := range nodes {
			if outDegree[node] == 0 {
				danglingMass += rank[node]
			}
		}
		danglingShare := pageRankDamping * danglingMass / float64(n)

		for _, node := range nodes {
			next[node] = base + danglingShare
		}
		for _, node := range nodes {
			od := outDegree[node]
			if od == 0 {
				continue
			}
			share := pageRankDamping * rank[node] / float64(od)
			for _, to := range uniqueOutNeighbors(g, node) {
				next[to] += share
			}
		}

		delta := 0.0
		for _, node := range nodes {
			d := next[node] - rank[node]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		rank = next
		if delta < pageRankTolerance {
			break
		}
	}
	return rank
}

func uniqueOutNeighbors(g *AdjacencyListGraphRepresentation, node string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, to := range g.out[node] {
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}

func uniqueOutDegree(g *AdjacencyListGraphRepresentation, node string) int {
	return len(uniqueOutNeighbors(g, node))
}
