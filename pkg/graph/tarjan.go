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

// SccRiskLevel classifies a strongly connected component by size.
type SccRiskLevel int

const (
	// SccRiskNone: singleton component, no cycle.
	SccRiskNone SccRiskLevel = iota
	// SccRiskMedium: a two-node cycle.
	SccRiskMedium
	// SccRiskHigh: a cycle of three or more nodes.
	SccRiskHigh
)

func (r SccRiskLevel) String() string {
	switch r {
	case SccRiskMedium:
		return "Medium"
	case SccRiskHigh:
		return "High"
	default:
		return "None"
	}
}

// ClassifySccRiskLevel maps a component size to a risk level, ported
// directly from tarjan_scc_algorithm.rs.
func ClassifySccRiskLevel(size int) SccRiskLevel {
	switch {
	case size <= 1:
		return SccRiskNone
	case size == 2:
		return SccRiskMedium
	default:
		return SccRiskHigh
	}
}

// SCC is one strongly connected component.
type SCC struct {
	Nodes []string
	Risk  SccRiskLevel
}

type tarjanFrame struct {
	node     string
	childIdx int
}

// TarjanSCC computes strongly connected components using a single
// explicit-stack DFS rather than recursion, for safety against deep source
// trees in production use. Components are returned sorted by size
// descending.
func TarjanSCC(g *AdjacencyListGraphRepresentation) []SCC {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var nodeStack []string
	var result []SCC

	nodes := g.Nodes()
	sort.Strings(nodes) // deterministic discovery order across runs

	for _, start := range nodes {
		if _, seen := indices[start]; seen {
			continue
		}

		work := []tarjanFrame{{node: start, childIdx: 0}}
		for len(work) > 0 {
			top := &work[len(work)-1]
			node := top.node

			if top.childIdx == 0 {
				if _, seen := indices[node]; !seen {
					indices[node] = index
					lowlink[node] = index
					index++
					nodeStack = append(nodeStack, node)
					onStack[node] = true
				}
			}

			neighbors := g.out[node]
			pushedChild := false
			for i := top.childIdx; i < len(neighbors); i++ {
				w := neighbors[i]
				if _, seen := indices[w]; !seen {
					top.childIdx = i + 1
					work = append(work, tarjanFrame{node: w, childIdx: 0})
					pushedChild = true
					break
				} else if onStack[w] {
					if indices[w] < lowlink[node] {
						lowlink[node] = indices[w]
					}
				}
			}
			if pushedChild {
				continue
			}

			// done with node: pop it, emit its SCC if it is a root
			top.childIdx = len(neighbors)
			work = work[:len(work)-1]

			if lowlink[node] == indices[node] {
				var comp []string
				for {
					n := len(nodeStack) - 1
					w := nodeStack[n]
					nodeStack = nodeStack[:n]
					onStack[w] = false
					comp = append(comp, w)
					if w == node {
						break
					}
				}
				result = append(result, SCC{Nodes: comp, Risk: ClassifySccRiskLevel(len(comp))})
			}

			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[node] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[node]
				}
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].Nodes) > len(result[j].Nodes)
	})
	return result
}
