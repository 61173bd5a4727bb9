package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSitterExtractorGoFunctionsAndCalls(t *testing.T) {
	src := []byte(`package sample

func helper() int {
	return 1
}

func caller() int {
	return helper()
}

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return g.Name
}
`)
	ext := NewTreeSitterExtractor()
	require.True(t, ext.Supports("go"))
	result, err := ext.Extract("go", "sample.go", src)
	require.NoError(t, err)

	names := make(map[string]string, len(result.Candidates))
	signatures := make(map[string]string, len(result.Candidates))
	for _, c := range result.Candidates {
		names[c.Name] = c.EntityType
		signatures[c.Name] = c.Signature
	}
	assert.Equal(t, "function", names["helper"])
	assert.Equal(t, "function", names["caller"])
	assert.Equal(t, "struct", names["Greeter"])
	assert.Equal(t, "method", names["Greeter.Greet"])
	assert.Equal(t, "func helper()", signatures["helper"])
	assert.Equal(t, "func Greeter.Greet()", signatures["Greeter.Greet"])
	assert.Empty(t, signatures["Greeter"]) // types carry no signature

	var sawCall bool
	for _, c := range result.Calls {
		if c.CallerName == "caller" && c.CalleeName == "helper" {
			sawCall = true
		}
	}
	assert.True(t, sawCall)
}

func TestPatternExtractorRustFallback(t *testing.T) {
	src := []byte(`pub struct Graph {
    nodes: Vec<String>,
}

pub fn build_graph() -> Graph {
    Graph { nodes: vec![] }
}
`)
	ext := NewPatternExtractor()
	require.True(t, ext.Supports("rust"))
	result, err := ext.Extract("rust", "graph.rs", src)
	require.NoError(t, err)

	names := make(map[string]string, len(result.Candidates))
	signatures := make(map[string]string, len(result.Candidates))
	for _, c := range result.Candidates {
		names[c.EntityType] = c.Name
		signatures[c.EntityType] = c.Signature
	}
	assert.Equal(t, "Graph", names["struct"])
	assert.Equal(t, "build_graph", names["function"])
	assert.Equal(t, "func build_graph()", signatures["function"])
	assert.Empty(t, signatures["struct"])
}

func TestBuildImplementsIndexMatchesMethodSet(t *testing.T) {
	types := []Candidate{
		{Name: "Writer", EntityType: "trait", Code: "Write(data []byte) error\nClose() error"},
	}
	methods := []Candidate{
		{Name: "FileWriter.Write"},
		{Name: "FileWriter.Close"},
		{Name: "Logger.Write"},
	}
	edges := BuildImplementsIndex(types, methods)
	require.Len(t, edges, 1)
	assert.Equal(t, "FileWriter", edges[0].TypeName)
	assert.Equal(t, "Writer", edges[0].InterfaceName)
}

func TestLanguageFromExtension(t *testing.T) {
	assert.Equal(t, "go", LanguageFromExtension("go"))
	assert.Equal(t, "python", LanguageFromExtension("py"))
	assert.Equal(t, "", LanguageFromExtension("md"))
}
