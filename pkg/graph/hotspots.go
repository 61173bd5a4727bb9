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

// HotspotEntry is one entity's coupling ranking.
type HotspotEntry struct {
	Key      string
	Coupling int
}

// Coupling returns in_degree + out_degree for key, the glossary's coupling
// definition.
func Coupling(g *AdjacencyListGraphRepresentation, key string) int {
	return g.InDegree(key) + g.OutDegree(key)
}

// ComplexityHotspotRanking sorts entities by total coupling descending and
// returns the top N. A non-positive top returns every node.
func ComplexityHotspotRanking(g *AdjacencyListGraphRepresentation, top int) []HotspotEntry {
	nodes := g.Nodes()
	entries := make([]HotspotEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, HotspotEntry{Key: n, Coupling: Coupling(g, n)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Coupling != entries[j].Coupling {
			return entries[i].Coupling > entries[j].Coupling
		}
		return entries[i].Key < entries[j].Key
	})
	if top > 0 && top < len(entries) {
		entries = entries[:top]
	}
	return entries
}
