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

type color int

const (
	white color = iota
	gray
	black
)

type dfsFrame struct {
	node     string
	childIdx int
}

// DetectCycles runs a three-color DFS (white/gray/black) with an explicit
// stack rather than recursion, since deep source trees can blow the host
// stack, and extracts a cycle slice from the current path whenever a back
// edge to a gray node is found.
func DetectCycles(g *AdjacencyListGraphRepresentation) [][]string {
	colors := make(map[string]color, g.NodeCount())
	nodes := g.Nodes()
	sort.Strings(nodes)
	for _, n := range nodes {
		colors[n] = white
	}

	var cycles [][]string

	for _, start := range nodes {
		if colors[start] != white {
			continue
		}
		colors[start] = gray
		var path []string
		path = append(path, start)
		stack := []dfsFrame{{node: start, childIdx: 0}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := uniqueOutNeighbors(g, top.node)
			sort.Strings(neighbors)

			advanced := false
			for i := top.childIdx; i < len(neighbors); i++ {
				w := neighbors[i]
				top.childIdx = i + 1
				switch colors[w] {
				case gray:
					idx := indexOfPath(path, w)
					if idx >= 0 {
						cycle := append([]string{}, path[idx:]...)
						cycle = append(cycle, w)
						cycles = append(cycles, cycle)
					}
				case white:
					colors[w] = gray
					path = append(path, w)
					stack = append(stack, dfsFrame{node: w, childIdx: 0})
					advanced = true
				case black:
					// already fully explored, not part of a live cycle
				}
				if advanced {
					break
				}
			}
			if advanced {
				continue
			}

			colors[top.node] = black
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
		}
	}

	return cycles
}

func indexOfPath(path []string, node string) int {
	for i, n := range path {
		if n == node {
			return i
		}
	}
	return -1
}
