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

// Package matcher implements the three-priority Entity Matcher: content
// hash first, position proximity second, new identity last. It rebinds
// newly parsed entities in one file to previously stored entities from the
// same file.
package matcher

// LineRange is an inclusive [Start, End] line span.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) midpoint() float64 {
	return float64(r.Start+r.End) / 2
}

// NewCandidate is a freshly parsed entity awaiting rebind.
type NewCandidate struct {
	Name        string
	EntityType  string
	FilePath    string
	LineRange   LineRange
	ContentHash string
	Code        string
}

// OldEntity is a previously stored entity from the same file.
type OldEntity struct {
	Key         string
	Name        string
	FilePath    string
	LineRange   LineRange
	ContentHash string
}

// ResultKind discriminates the three priorities.
type ResultKind int

const (
	// NewEntity: no old entity matched; Identity must mint a fresh birth timestamp.
	NewEntity ResultKind = iota
	// ContentMatch: Priority 1, identical content_hash.
	ContentMatch
	// PositionMatch: Priority 2, same name+file, within tolerance.
	PositionMatch
)

// MatchResult is the per-candidate outcome.
type MatchResult struct {
	Kind   ResultKind
	OldKey string // empty when Kind == NewEntity
}

// DefaultPositionToleranceLines is the ±N line-midpoint tolerance used
// absent an explicit configuration override; see DESIGN.md's Open Question
// decision.
const DefaultPositionToleranceLines = 10

// Match rebinds each candidate in candidates, in order, against oldEntities
// (all assumed to be from the same file as the candidates). Candidates are
// processed in the order given, a declaration-order tie-break
// for position matches. toleranceLines is the ±N line-midpoint window; pass
// DefaultPositionToleranceLines absent an explicit configuration override.
func Match(candidates []NewCandidate, oldEntities []OldEntity, toleranceLines int) []MatchResult {
	// Priority 1: multimap of old entities keyed by content hash.
	byHash := make(map[string][]int) // content_hash -> indices into oldEntities, in original order
	for i, old := range oldEntities {
		byHash[old.ContentHash] = append(byHash[old.ContentHash], i)
	}
	consumed := make([]bool, len(oldEntities))

	results := make([]MatchResult, len(candidates))
	pending := make([]int, 0, len(candidates)) // indices still needing Priority 2/3

	for i, cand := range candidates {
		matched := false
		for _, idx := range byHash[cand.ContentHash] {
			if consumed[idx] {
				continue
			}
			consumed[idx] = true
			results[i] = MatchResult{Kind: ContentMatch, OldKey: oldEntities[idx].Key}
			matched = true
			break
		}
		if !matched {
			pending = append(pending, i)
		}
	}

	// Priority 2: position proximity among same-name, same-file, unconsumed
	// old entities. Candidates are resolved in declaration order; each bind
	// consumes its old entity so a later candidate cannot re-use it.
	for _, i := range pending {
		cand := candidates[i]
		bestIdx := -1
		bestDist := float64(toleranceLines) + 1
		for idx, old := range oldEntities {
			if consumed[idx] || old.Name != cand.Name || old.FilePath != cand.FilePath {
				continue
			}
			dist := absFloat(old.LineRange.midpoint() - cand.LineRange.midpoint())
			if dist <= float64(toleranceLines) && dist < bestDist {
				bestDist = dist
				bestIdx = idx
			}
		}
		if bestIdx >= 0 {
			consumed[bestIdx] = true
			results[i] = MatchResult{Kind: PositionMatch, OldKey: oldEntities[bestIdx].Key}
			continue
		}
		results[i] = MatchResult{Kind: NewEntity}
	}

	return results
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
