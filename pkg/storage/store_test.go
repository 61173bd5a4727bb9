package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeForStringFixtures(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`O'Brien`, `O\'Brien`},
		{`back\slash`, `back\\slash`},
		{`both\'combo`, `both\\\'combo`},
		{"plain", "plain"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EscapeForString(c.in))
	}
}

func TestUnresolvedSentinelFormat(t *testing.T) {
	assert.Equal(t, "unresolved-reference:0-0:doSomething", UnresolvedSentinel("doSomething"))
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s, err := Open(Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.EnsureSchema())
	require.NoError(t, s.EnsureSchema())
}

func TestUpsertAndDeleteEntityCascadesEdges(t *testing.T) {
	ctx := context.Background()
	s, err := Open(Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	a := CodeEntity{
		ISGL1Key: "go:fn:handleAuth:__src_auth_go:T111", Name: "handleAuth",
		EntityType: "function", EntityClass: "CODE", FilePath: "src/auth.go",
		LineStart: 1, LineEnd: 10, Language: "go", CurrentCode: "func handleAuth() {}",
		ContentHash: "abc", BirthTimestamp: 111, SemanticPath: "__src_auth_go",
		RootSubfolderL1: "src", RootSubfolderL2: "", LastModified: 1000,
	}
	b := CodeEntity{
		ISGL1Key: "go:fn:validate:__src_validate_go:T222", Name: "validate",
		EntityType: "function", EntityClass: "CODE", FilePath: "src/validate.go",
		LineStart: 1, LineEnd: 5, Language: "go", CurrentCode: "func validate() {}",
		ContentHash: "def", BirthTimestamp: 222, SemanticPath: "__src_validate_go",
		RootSubfolderL1: "src", RootSubfolderL2: "", LastModified: 1000,
	}
	require.NoError(t, s.UpsertEntity(ctx, a))
	require.NoError(t, s.UpsertEntity(ctx, b))
	require.NoError(t, s.UpsertEdges(ctx, []DependencyEdge{
		{FromKey: a.ISGL1Key, ToKey: b.ISGL1Key, EdgeType: "Calls", SourceLocation: "src/auth.go:3"},
	}))

	rows, err := s.RawQuery(ctx, `?[from_key, to_key] := *dependency_edges{from_key, to_key}`)
	require.NoError(t, err)
	assert.Len(t, rows.Rows, 1)

	require.NoError(t, s.DeleteEntity(ctx, a.ISGL1Key))

	rows, err = s.RawQuery(ctx, `?[from_key, to_key] := *dependency_edges{from_key, to_key}`)
	require.NoError(t, err)
	assert.Empty(t, rows.Rows)

	rows, err = s.RawQuery(ctx, `?[isgl1_key] := *code_graph{isgl1_key}`)
	require.NoError(t, err)
	assert.Len(t, rows.Rows, 1)
}

func TestProjectMetaRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetProjectMeta(ctx, "last_indexed_sha")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetProjectMeta(ctx, "last_indexed_sha", "deadbeef"))
	v, err = s.GetProjectMeta(ctx, "last_indexed_sha")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", v)
}
