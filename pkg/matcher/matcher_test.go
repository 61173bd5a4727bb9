package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentMatchOverridesMovedLines(t *testing.T) {
	cands := []NewCandidate{
		{Name: "handle_auth", FilePath: "src/auth.go", LineRange: LineRange{110, 150}, ContentHash: "hash-a"},
	}
	olds := []OldEntity{
		{Key: "go:fn:handle_auth:__src_auth:T1", Name: "handle_auth", FilePath: "src/auth.go", LineRange: LineRange{10, 50}, ContentHash: "hash-a"},
	}
	results := Match(cands, olds, DefaultPositionToleranceLines)
	assert.Equal(t, ContentMatch, results[0].Kind)
	assert.Equal(t, "go:fn:handle_auth:__src_auth:T1", results[0].OldKey)
}

func TestPositionMatchOnChangedHashNearbyPosition(t *testing.T) {
	cands := []NewCandidate{
		{Name: "compute", FilePath: "a.go", LineRange: LineRange{20, 30}, ContentHash: "new-hash"},
	}
	olds := []OldEntity{
		{Key: "k1", Name: "compute", FilePath: "a.go", LineRange: LineRange{18, 28}, ContentHash: "old-hash"},
	}
	results := Match(cands, olds, DefaultPositionToleranceLines)
	assert.Equal(t, PositionMatch, results[0].Kind)
	assert.Equal(t, "k1", results[0].OldKey)
}

func TestNewEntityWhenNoOldEntities(t *testing.T) {
	cands := []NewCandidate{{Name: "fresh", FilePath: "a.go", LineRange: LineRange{1, 5}, ContentHash: "h"}}
	results := Match(cands, nil, DefaultPositionToleranceLines)
	assert.Equal(t, NewEntity, results[0].Kind)
	assert.Empty(t, results[0].OldKey)
}

func TestPositionMatchBoundaryToleranceInclusive(t *testing.T) {
	// old midpoint 23, candidate midpoint 33 => diff 10, exactly at ±10
	cands := []NewCandidate{{Name: "f", FilePath: "a.go", LineRange: LineRange{31, 35}, ContentHash: "h2"}}
	olds := []OldEntity{{Key: "k", Name: "f", FilePath: "a.go", LineRange: LineRange{20, 26}, ContentHash: "h1"}}
	results := Match(cands, olds, DefaultPositionToleranceLines)
	assert.Equal(t, PositionMatch, results[0].Kind)
}

func TestContentPrecedesProximityEvenAcrossDistance(t *testing.T) {
	// Candidate sits right next to a wrong-hash old entity, but the
	// matching-hash old entity is far away: content wins regardless of
	// distance.
	cands := []NewCandidate{{Name: "f", FilePath: "a.go", LineRange: LineRange{100, 110}, ContentHash: "match-me"}}
	olds := []OldEntity{
		{Key: "near-wrong-hash", Name: "f", FilePath: "a.go", LineRange: LineRange{101, 109}, ContentHash: "other"},
		{Key: "far-right-hash", Name: "f", FilePath: "a.go", LineRange: LineRange{900, 910}, ContentHash: "match-me"},
	}
	results := Match(cands, olds, DefaultPositionToleranceLines)
	assert.Equal(t, ContentMatch, results[0].Kind)
	assert.Equal(t, "far-right-hash", results[0].OldKey)
}

func TestDeclarationOrderTieBreak(t *testing.T) {
	olds := []OldEntity{
		{Key: "left", Name: "f", FilePath: "a.go", LineRange: LineRange{10, 10}, ContentHash: "x1"},
		{Key: "right", Name: "f", FilePath: "a.go", LineRange: LineRange{14, 14}, ContentHash: "x2"},
	}
	// The first candidate is equidistant (2 lines) from both old entities
	// and binds the first-declared one; the second then takes what is left.
	cands := []NewCandidate{
		{Name: "f", FilePath: "a.go", LineRange: LineRange{12, 12}, ContentHash: "y1"},
		{Name: "f", FilePath: "a.go", LineRange: LineRange{13, 13}, ContentHash: "y2"},
	}
	results := Match(cands, olds, DefaultPositionToleranceLines)
	assert.Equal(t, "left", results[0].OldKey)
	assert.Equal(t, "right", results[1].OldKey)
}
