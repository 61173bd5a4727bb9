package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRankChainMonotonicIncrease(t *testing.T) {
	g := New(chainGraphEdges())
	ranks := ComputePageRankCentralityScores(g)
	assert.Less(t, ranks["A"], ranks["B"])
	assert.Less(t, ranks["B"], ranks["C"])
	assert.Less(t, ranks["C"], ranks["D"])
	assert.Less(t, ranks["D"], ranks["E"])
}

func TestCycleDetectorFindsCycleIffCyclic(t *testing.T) {
	acyclic := New(chainGraphEdges())
	assert.Empty(t, DetectCycles(acyclic))

	cyclic := New(referenceGraphEdges())
	cycles := DetectCycles(cyclic)
	assert.NotEmpty(t, cycles)
	for _, cyc := range cycles {
		for i := 0; i < len(cyc)-1; i++ {
			assert.Contains(t, uniqueOutNeighbors(cyclic, cyc[i]), cyc[i+1])
		}
	}
}

func TestKCoreDecompositionAssignsLayers(t *testing.T) {
	g := New(referenceGraphEdges())
	result := KCoreDecompositionLayeringAlgorithm(g)
	assert.Len(t, result, g.NodeCount())
	for _, r := range result {
		assert.GreaterOrEqual(t, r.Coreness, 0)
	}
}

func TestHotspotRankingSortsDescending(t *testing.T) {
	g := New(referenceGraphEdges())
	top := ComplexityHotspotRanking(g, 3)
	assert.Len(t, top, 3)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Coupling, top[i].Coupling)
	}
}

func TestLeidenReturnsPartitionAndModularity(t *testing.T) {
	g := New(referenceGraphEdges())
	result := LeidenCommunityDetectionClustering(g, DefaultLeidenResolution)
	assert.Len(t, result.Community, g.NodeCount())
}

func TestBetweennessNormalizedRange(t *testing.T) {
	g := New(referenceGraphEdges())
	scores := ComputeBetweennessCentralityScores(g)
	for _, v := range scores {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSqaleSeverityBands(t *testing.T) {
	assert.Equal(t, DebtNone, ClassifyDebtSeverityLevel(0))
	assert.Equal(t, DebtLow, ClassifyDebtSeverityLevel(10))
	assert.Equal(t, DebtMedium, ClassifyDebtSeverityLevel(60))
	assert.Equal(t, DebtHigh, ClassifyDebtSeverityLevel(200))
}

func TestEmptyGraphAnalysesReturnEmpty(t *testing.T) {
	g := New(nil)
	assert.Empty(t, TarjanSCC(g))
	assert.Empty(t, DetectCycles(g))
	assert.Empty(t, ComplexityHotspotRanking(g, 10))
	assert.Empty(t, ComputePageRankCentralityScores(g))
}
