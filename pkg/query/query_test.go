package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/storage"
)

func seedStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	entities := []storage.CodeEntity{
		{ISGL1Key: "go:fn:caller:__main:T1", Name: "caller", EntityType: "function", EntityClass: "CODE", FilePath: "main.go", Language: "go", RootSubfolderL1: ".", RootSubfolderL2: ""},
		{ISGL1Key: "go:fn:helper:__main:T2", Name: "helper", EntityType: "function", EntityClass: "CODE", FilePath: "main.go", Language: "go", RootSubfolderL1: ".", RootSubfolderL2: ""},
		{ISGL1Key: "go:fn:TestCaller:__main_test:T3", Name: "TestCaller", EntityType: "function", EntityClass: "TEST", FilePath: "main_test.go", Language: "go", RootSubfolderL1: ".", RootSubfolderL2: ""},
	}
	for _, e := range entities {
		require.NoError(t, s.UpsertEntity(ctx, e))
	}
	require.NoError(t, s.UpsertEdges(ctx, []storage.DependencyEdge{
		{FromKey: "go:fn:caller:__main:T1", ToKey: "go:fn:helper:__main:T2", EdgeType: "Calls"},
		{FromKey: "go:fn:helper:__main:T2", ToKey: "go:fn:caller:__main:T1", EdgeType: "Calls"},
	}))
	return s
}

func TestServiceHealthAndStats(t *testing.T) {
	s := New(seedStore(t))
	h := s.Health()
	assert.Equal(t, "ok", h.Status)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CodeCount)
	assert.Equal(t, 1, stats.TestCount)
	assert.Equal(t, 2, stats.EdgesCount)
	assert.Contains(t, stats.Languages, "go")
}

func TestServiceListAndDetail(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))

	list, err := s.ListEntities(ctx, "function", Scope{})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	detail, err := s.Detail(ctx, "go:fn:caller:__main:T1", Scope{})
	require.NoError(t, err)
	assert.Equal(t, "caller", detail.Name)

	_, err = s.Detail(ctx, "go:fn:missing:__main:T9", Scope{})
	assert.Equal(t, kerrors.KindNotFound, kerrors.KindOf(err))
}

func TestServiceFuzzySearch(t *testing.T) {
	s := New(seedStore(t))
	results, err := s.FuzzySearch(context.Background(), "FN:CALL")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "go:fn:caller:__main:T1", results[0].Key)
}

func TestServiceReverseAndForward(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))

	callers, err := s.ReverseCallers(ctx, "go:fn:helper:__main:T2")
	require.NoError(t, err)
	assert.Len(t, callers, 1)
	assert.Equal(t, "go:fn:caller:__main:T1", callers[0].FromKey)

	callees, err := s.ForwardCallees(ctx, "go:fn:caller:__main:T1")
	require.NoError(t, err)
	assert.Len(t, callees, 1)
	assert.Equal(t, "go:fn:helper:__main:T2", callees[0].ToKey)
}

func TestServiceListEdgesPagination(t *testing.T) {
	s := New(seedStore(t))
	page, err := s.ListEdges(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Edges, 1)
}

func TestServiceCyclesAndSCC(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))

	cycles, err := s.Cycles(ctx, Scope{})
	require.NoError(t, err)
	assert.NotEmpty(t, cycles)

	sccs, err := s.SCC(ctx, Scope{})
	require.NoError(t, err)
	require.Len(t, sccs, 1)
	assert.Equal(t, "Medium", sccs[0].Risk)
	assert.Len(t, sccs[0].Nodes, 2)
}

func TestServiceCentralityUnknownMethod(t *testing.T) {
	s := New(seedStore(t))
	_, err := s.Centrality(context.Background(), "nonsense", 5, Scope{})
	assert.Equal(t, kerrors.KindBadRequest, kerrors.KindOf(err))
}

func TestServiceHotspotsAndFolderTree(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))

	hotspots, err := s.Hotspots(ctx, 10, Scope{})
	require.NoError(t, err)
	assert.NotEmpty(t, hotspots)

	tree, err := s.FolderTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, ".", tree[0].L1)
	assert.Equal(t, 3, tree[0].EntityCount)
}

func seedClassStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	entities := []storage.CodeEntity{
		{ISGL1Key: "go:me:Build:__builder:T1", Name: "Build", EntityType: "method", EntityClass: "CODE", FilePath: "builder.go", Language: "go", RootSubfolderL1: ".", ReceiverType: "Builder", InterfaceSignature: "func (b *Builder) Build(ctx context.Context, name string) error"},
		{ISGL1Key: "go:me:Reset:__builder:T2", Name: "Reset", EntityType: "method", EntityClass: "CODE", FilePath: "builder.go", Language: "go", RootSubfolderL1: ".", ReceiverType: "Builder", InterfaceSignature: "func (b *Builder) Reset()"},
		{ISGL1Key: "go:fn:helper:__builder:T3", Name: "helper", EntityType: "function", EntityClass: "CODE", FilePath: "builder.go", Language: "go", RootSubfolderL1: "."},
	}
	for _, e := range entities {
		require.NoError(t, s.UpsertEntity(ctx, e))
	}
	require.NoError(t, s.UpsertEdges(ctx, []storage.DependencyEdge{
		{FromKey: "go:me:Build:__builder:T1", ToKey: "go:fn:helper:__builder:T3", EdgeType: "Calls"},
		{FromKey: "go:me:Reset:__builder:T2", ToKey: "go:fn:helper:__builder:T3", EdgeType: "Calls"},
	}))
	return s
}

func TestServiceCoreness(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))

	entries, err := s.Coreness(ctx, Scope{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Coreness)
	assert.NotEmpty(t, entries[0].Layer)
}

func TestServiceCKMetrics(t *testing.T) {
	ctx := context.Background()
	s := New(seedClassStore(t))

	results, err := s.CKMetrics(ctx, Scope{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Builder", r.ClassKey)
	assert.Equal(t, 1, r.CBO) // both methods couple to the same external helper
	// Build(ctx, name) -> 3 weight, Reset() -> 1 weight
	assert.Equal(t, 4, r.WMC)
}

func TestServiceDebt(t *testing.T) {
	ctx := context.Background()
	s := New(seedClassStore(t))

	results, err := s.Debt(ctx, Scope{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestServiceScopeSuggestions(t *testing.T) {
	ctx := context.Background()
	s := New(seedStore(t))
	_, err := s.ListEntities(ctx, "", Scope{L1: ".x"})
	require.Error(t, err)
	assert.Equal(t, kerrors.KindBadRequest, kerrors.KindOf(err))
}
