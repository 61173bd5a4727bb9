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

// ComputeBetweennessCentralityScores runs Brandes's algorithm for
// unweighted directed graphs, normalized by (N-1)(N-2).
func ComputeBetweennessCentralityScores(g *AdjacencyListGraphRepresentation) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	centrality := make(map[string]float64, n)
	for _, node := range nodes {
		centrality[node] = 0
	}
	if n < 3 {
		return centrality
	}

	for _, s := range nodes {
		stack := make([]string, 0, n)
		pred := make(map[string][]string, n)
		sigma := make(map[string]float64, n)
		dist := make(map[string]int, n)
		for _, v := range nodes {
			sigma[v] = 0
			dist[v] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range uniqueOutNeighbors(g, v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make(map[string]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] != 0 {
					delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
				}
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	norm := float64((n - 1) * (n - 2))
	if norm > 0 {
		for k := range centrality {
			centrality[k] /= norm
		}
	}
	return centrality
}
