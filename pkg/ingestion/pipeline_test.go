package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codegraph/pkg/storage"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPipelineRunCrossFileCallsAndImplements(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "writer.go", `package main

type Writer interface {
	Write(data []byte) error
}

type FileWriter struct{}

func (f *FileWriter) Write(data []byte) error {
	return nil
}
`)
	writeFile(t, root, "main.go", `package main

func caller() {
	helper()
}

func helper() {
	missingFunc()
}
`)

	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	p := NewPipeline(s, nil, nil)
	report, err := p.Run(ctx, Config{WorkspaceRoot: root, ParallelWorkers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesIndexed)
	assert.Equal(t, 0, report.FilesSkipped)
	assert.Equal(t, 1, report.UnresolvedCalls)
	assert.Greater(t, report.EntitiesUpserted, 0)

	rows, err := s.RawQuery(ctx, `?[from_key, to_key, edge_type] := *dependency_edges{from_key, to_key, edge_type}`)
	require.NoError(t, err)

	var sawCall, sawUnresolved, sawImplements bool
	for _, row := range rows.Rows {
		fromKey, _ := row[0].(string)
		toKey, _ := row[1].(string)
		edgeType, _ := row[2].(string)
		switch edgeType {
		case "Calls":
			if toKey == storage.UnresolvedSentinel("missingFunc") {
				sawUnresolved = true
			} else {
				sawCall = true
			}
		case "Implements":
			sawImplements = true
		}
		_ = fromKey
	}
	assert.True(t, sawCall, "expected a resolved cross-function Calls edge")
	assert.True(t, sawUnresolved, "expected an unresolved-reference sentinel edge")
	assert.True(t, sawImplements, "expected FileWriter -> Writer Implements edge")
}

func TestPipelineRunSkipsOversizedFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "small.go", "package main\n\nfunc ok() {}\n")
	writeFile(t, root, "big.go", "package main\n\nfunc big() {\n\t// padding\n}\n")

	s, err := storage.Open(storage.Config{DBPath: "mem"}, nil)
	require.NoError(t, err)
	defer s.Close()

	p := NewPipeline(s, nil, nil)
	report, err := p.Run(ctx, Config{WorkspaceRoot: root, MaxFileSize: 20})
	require.NoError(t, err)

	assert.Equal(t, 0, report.FilesIndexed)
}
