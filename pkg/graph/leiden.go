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

// DefaultLeidenResolution is the resolution parameter named as
// the default.
const DefaultLeidenResolution = 1.0

const leidenMaxIterations = 50

// LeidenResult is the community assignment and the modularity it achieves.
type LeidenResult struct {
	Community  map[string]int
	Modularity float64
}

// LeidenCommunityDetectionClustering runs a local-moving, modularity-
// maximizing partition (the Leiden/Louvain local phase) over the
// undirected projection of g, bounded by leidenMaxIterations.
func LeidenCommunityDetectionClustering(g *AdjacencyListGraphRepresentation, resolution float64) LeidenResult {
	nodes := g.Nodes()
	sort.Strings(nodes)
	if len(nodes) == 0 {
		return LeidenResult{Community: map[string]int{}, Modularity: 0}
	}

	weight := make(map[[2]string]float64)
	degree := make(map[string]float64, len(nodes))
	totalWeight := 0.0
	for _, e := range g.edges {
		if e.From == e.To {
			continue
		}
		a, b := e.From, e.To
		key := [2]string{a, b}
		if a > b {
			key = [2]string{b, a}
		}
		weight[key]++
		degree[a]++
		degree[b]++
		totalWeight++
	}
	twoM := 2 * totalWeight

	community := make(map[string]int, len(nodes))
	commDegree := make(map[int]float64, len(nodes))
	for i, n := range nodes {
		community[n] = i
		commDegree[i] = degree[n]
	}

	neighborWeights := func(n string) map[int]float64 {
		acc := make(map[int]float64)
		for pair, w := range weight {
			var other string
			if pair[0] == n {
				other = pair[1]
			} else if pair[1] == n {
				other = pair[0]
			} else {
				continue
			}
			acc[community[other]] += w
		}
		return acc
	}

	if twoM > 0 {
		for iter := 0; iter < leidenMaxIterations; iter++ {
			improved := false
			for _, n := range nodes {
				current := community[n]
				ki := degree[n]
				neighW := neighborWeights(n)

				commDegree[current] -= ki
				bestComm := current
				bestGain := 0.0
				for c, wTo := range neighW {
					gain := wTo - resolution*ki*commDegree[c]/twoM
					if gain > bestGain {
						bestGain = gain
						bestComm = c
					}
				}
				commDegree[bestComm] += ki
				if bestComm != current {
					community[n] = bestComm
					improved = true
				}
			}
			if !improved {
				break
			}
		}
	}

	// renumber communities densely from 0
	renumber := make(map[int]int)
	next := 0
	for _, n := range nodes {
		c := community[n]
		if _, ok := renumber[c]; !ok {
			renumber[c] = next
			next++
		}
		community[n] = renumber[c]
	}

	return LeidenResult{
		Community:  community,
		Modularity: CalculateModularityScoreValue(g, community, resolution),
	}
}

// CalculateModularityScoreValue computes Newman's modularity Q for a given
// community assignment over the undirected projection of g.
func CalculateModularityScoreValue(g *AdjacencyListGraphRepresentation, community map[string]int, resolution float64) float64 {
	degree := make(map[string]float64)
	totalWeight := 0.0
	seen := make(map[[2]string]float64)
	for _, e := range g.edges {
		if e.From == e.To {
			continue
		}
		a, b := e.From, e.To
		key := [2]string{a, b}
		if a > b {
			key = [2]string{b, a}
		}
		seen[key]++
		degree[a]++
		degree[b]++
		totalWeight++
	}
	if totalWeight == 0 {
		return 0
	}
	twoM := 2 * totalWeight

	q := 0.0
	for key, w := range seen {
		if community[key[0]] == community[key[1]] {
			q += w
		}
	}
	q /= totalWeight

	sumBySquare := 0.0
	commTotals := make(map[int]float64)
	for n, d := range degree {
		commTotals[community[n]] += d
	}
	for _, total := range commTotals {
		sumBySquare += resolution * (total / twoM) * (total / twoM)
	}

	return q - sumBySquare
}
