package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannonUniformThreeTypes(t *testing.T) {
	edges := []Edge{
		{From: "X", To: "n1", Type: "Calls"}, {From: "X", To: "n2", Type: "Calls"},
		{From: "X", To: "n3", Type: "Uses"}, {From: "X", To: "n4", Type: "Uses"},
		{From: "X", To: "n5", Type: "Implements"}, {From: "X", To: "n6", Type: "Implements"},
	}
	g := New(edges)
	h := CalculateEntityEntropyScore(g, "X")
	assert.InDelta(t, 1.585, h, 0.01)
	assert.Equal(t, EntropyHigh, ClassifyEntropyComplexityLevel(h))
}

func TestShannonSkew(t *testing.T) {
	edges := []Edge{
		{From: "M", To: "n1", Type: "Calls"}, {From: "M", To: "n2", Type: "Calls"},
		{From: "M", To: "n3", Type: "Calls"}, {From: "M", To: "n4", Type: "Uses"},
	}
	g := New(edges)
	h := CalculateEntityEntropyScore(g, "M")
	assert.InDelta(t, 0.811, h, 0.01)
	assert.Equal(t, EntropyLow, ClassifyEntropyComplexityLevel(h))
}

func TestShannonNoEdgesIsZero(t *testing.T) {
	g := New(nil)
	assert.Equal(t, 0.0, CalculateEntityEntropyScore(g, "absent"))
}

func TestShannonAllSameTypeIsZero(t *testing.T) {
	edges := []Edge{{From: "Y", To: "n1", Type: "Calls"}, {From: "Y", To: "n2", Type: "Calls"}}
	g := New(edges)
	assert.Equal(t, 0.0, CalculateEntityEntropyScore(g, "Y"))
}

func TestShannonEntropyLawUniformKTypes(t *testing.T) {
	// n=6 edges uniformly over k=3 types => H = log2(3)
	edges := []Edge{
		{From: "Z", To: "a", Type: "t1"}, {From: "Z", To: "b", Type: "t1"},
		{From: "Z", To: "c", Type: "t2"}, {From: "Z", To: "d", Type: "t2"},
		{From: "Z", To: "e", Type: "t3"}, {From: "Z", To: "f", Type: "t3"},
	}
	g := New(edges)
	h := CalculateEntityEntropyScore(g, "Z")
	assert.InDelta(t, 1.584963, h, 0.01)
}
