package reindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/storage"
)

func newTestReindexer(t *testing.T, root string) (*Reindexer, *storage.Store) {
	t.Helper()
	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, nil, root, 10), s
}

func TestReindexFileNewThenUnchanged(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	full := filepath.Join(root, "greet.go")
	require.NoError(t, os.WriteFile(full, []byte("package greet\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"), 0o644))

	r, _ := newTestReindexer(t, root)

	out, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)
	assert.False(t, out.Unchanged)
	assert.Equal(t, 1, out.NewEntities)
	assert.Equal(t, 1, out.EntitiesUpserted)

	out2, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)
	assert.True(t, out2.Unchanged)
}

func TestReindexFileContentMatchAcrossMove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	full := filepath.Join(root, "greet.go")
	original := "package greet\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(original), 0o644))

	r, _ := newTestReindexer(t, root)
	out, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)
	require.Equal(t, 1, out.NewEntities)

	moved := "package greet\n\n// a new leading comment\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(moved), 0o644))

	out2, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)
	assert.Equal(t, 1, out2.ContentMatches)
	assert.Equal(t, 0, out2.NewEntities)
}

func TestReindexFileDeletedRemovesEntities(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	full := filepath.Join(root, "greet.go")
	require.NoError(t, os.WriteFile(full, []byte("package greet\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"), 0o644))

	r, _ := newTestReindexer(t, root)
	_, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)

	require.NoError(t, os.Remove(full))
	out, err := r.ReindexFile(ctx, "greet.go", full, "go")
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Equal(t, 1, out.EntitiesRemoved)
}

func TestReindexFilePureLineShiftReportsNoEdgeChurn(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	full := filepath.Join(root, "main.go")
	original := "package main\n\nfunc helper() int {\n\treturn 1\n}\n\nfunc main() {\n\thelper()\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(original), 0o644))

	r, _ := newTestReindexer(t, root)
	_, err := r.ReindexFile(ctx, "main.go", full, "go")
	require.NoError(t, err)

	shifted := "package main\n\n// shifted down by a couple of lines\n\nfunc helper() int {\n\treturn 1\n}\n\nfunc main() {\n\thelper()\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(shifted), 0o644))

	out, err := r.ReindexFile(ctx, "main.go", full, "go")
	require.NoError(t, err)
	assert.Equal(t, 2, out.ContentMatches)
	assert.Equal(t, 0, out.EntitiesAdded)
	assert.Equal(t, 0, out.EntitiesRemoved)
	assert.Equal(t, 0, out.EdgesAdded)
	assert.Equal(t, 0, out.EdgesRemoved)
	assert.False(t, out.HashChanged)
}

func TestReindexFileInPlaceEditReplacesEdges(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	full := filepath.Join(root, "main.go")
	original := "package main\n\nfunc helper() int {\n\treturn 1\n}\n\nfunc main() {\n\thelper()\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(original), 0o644))

	r, _ := newTestReindexer(t, root)
	out1, err := r.ReindexFile(ctx, "main.go", full, "go")
	require.NoError(t, err)
	require.Equal(t, 1, out1.EdgesAdded) // main -> helper

	// main's own body is rewritten (in place, same line count); helper is
	// untouched. The call edge's source is main, so rewriting main is what
	// forces that edge's delete-then-insert, not rewriting helper.
	edited := "package main\n\nfunc helper() int {\n\treturn 1\n}\n\nfunc main() {\n\thelper() // call it\n}\n"
	require.NoError(t, os.WriteFile(full, []byte(edited), 0o644))

	out2, err := r.ReindexFile(ctx, "main.go", full, "go")
	require.NoError(t, err)
	assert.Equal(t, 1, out2.ContentMatches)  // helper unchanged
	assert.Equal(t, 1, out2.PositionMatches) // main's body changed, same slot
	assert.Equal(t, 0, out2.EntitiesAdded)
	assert.Equal(t, 0, out2.EntitiesRemoved)
	assert.Equal(t, 1, out2.EdgesAdded)
	assert.Equal(t, 1, out2.EdgesRemoved)
	assert.True(t, out2.HashChanged)
}

func TestValidateRejectsEmptyPath(t *testing.T) {
	r, _ := newTestReindexer(t, t.TempDir())
	assert.Error(t, r.Validate("", "go"))
	assert.NoError(t, r.Validate("a.go", "go"))
	assert.Error(t, r.Validate("a.xyz", "madeup-language"))
}
