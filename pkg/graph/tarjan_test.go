package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// referenceGraphEdges is the canonical 8-node fixture from
// test_fixture_reference_graphs.rs.
func referenceGraphEdges() []Edge {
	pairs := [][2]string{
		{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"},
		{"D", "E"}, {"E", "F"}, {"F", "D"}, {"G", "H"}, {"H", "G"},
	}
	edges := make([]Edge, len(pairs))
	for i, p := range pairs {
		edges[i] = Edge{From: p[0], To: p[1], Type: "Calls"}
	}
	return edges
}

func chainGraphEdges() []Edge {
	pairs := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "E"}}
	edges := make([]Edge, len(pairs))
	for i, p := range pairs {
		edges[i] = Edge{From: p[0], To: p[1], Type: "Calls"}
	}
	return edges
}

func TestTarjanReferenceGraph(t *testing.T) {
	g := New(referenceGraphEdges())
	sccs := TarjanSCC(g)
	assert.Len(t, sccs, 5)

	// sorted by size descending
	assert.ElementsMatch(t, []string{"D", "E", "F"}, sccs[0].Nodes)
	assert.Equal(t, SccRiskHigh, sccs[0].Risk)

	assert.ElementsMatch(t, []string{"G", "H"}, sccs[1].Nodes)
	assert.Equal(t, SccRiskMedium, sccs[1].Risk)

	singletons := map[string]bool{}
	for _, s := range sccs[2:] {
		assert.Len(t, s.Nodes, 1)
		assert.Equal(t, SccRiskNone, s.Risk)
		singletons[s.Nodes[0]] = true
	}
	assert.True(t, singletons["A"] && singletons["B"] && singletons["C"])
}

func TestTarjanChainGraphAllSingletons(t *testing.T) {
	g := New(chainGraphEdges())
	sccs := TarjanSCC(g)
	assert.Len(t, sccs, 5)
	for _, s := range sccs {
		assert.Len(t, s.Nodes, 1)
		assert.Equal(t, SccRiskNone, s.Risk)
	}
}

func TestSCCEveryNodeExactlyOneComponent(t *testing.T) {
	g := New(referenceGraphEdges())
	sccs := TarjanSCC(g)
	seen := make(map[string]int)
	for _, s := range sccs {
		for _, n := range s.Nodes {
			seen[n]++
		}
	}
	for _, n := range g.Nodes() {
		assert.Equal(t, 1, seen[n], n)
	}
}
