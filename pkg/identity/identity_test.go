package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"List<Integer>", "List__lt__Integer__gt__"},
		{"List<List<Integer>>", "List__lt__List__lt__Integer__gt____gt__"},
		{"std::vector<int>", "std::vector__lt__int__gt__"},
		{"Map<K, V>", "Map__lt__K__c___V__gt__"},
		{"Optional<?>", "Optional__lt__?__gt__"},
		{"my func", "my_func"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SanitizeName(c.name), c.name)
		// idempotent under repeat application
		assert.Equal(t, SanitizeName(c.name), SanitizeName(SanitizeName(c.name)))
	}
}

func TestSemanticPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"src/auth.rs", "__src_auth"},
		{"crates/core/src/parser/tree.rs", "__crates_core_src_parser_tree"},
		{"my-module/lib.py", "__my_module_lib"},
		{"", "__"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SemanticPath(c.path), c.path)
	}
}

func TestFormatKey(t *testing.T) {
	got := FormatKey("rust", "fn", "handle_auth", "__src_auth_rs", 1706284800)
	assert.Equal(t, "rust:fn:handle_auth:__src_auth_rs:T1706284800", got)
}

func TestFormatKeyRoundTrip(t *testing.T) {
	key := FormatKey("go", KindAbbrev("function"), "Do<Thing>", SemanticPath("pkg/x.go"), 42)
	parsed, err := ParseKey(key)
	require.NoError(t, err)
	assert.Equal(t, "go", parsed.Language)
	assert.Equal(t, "fn", parsed.Kind)
	assert.False(t, parsed.Legacy)
	assert.False(t, strings.Contains(key[strings.LastIndex(key, ":"):], "-"))
}

func TestParseKeyLegacyFormat(t *testing.T) {
	parsed, err := ParseKey("go:fn:Handle:__pkg_x:10-50")
	require.NoError(t, err)
	assert.True(t, parsed.Legacy)
}

func TestBirthTimestampDeterministicAndDistinct(t *testing.T) {
	a := BirthTimestamp("src/a.go", "Foo")
	b := BirthTimestamp("src/a.go", "Foo")
	assert.Equal(t, a, b)

	c := BirthTimestamp("src/a.go", "Bar")
	d := BirthTimestamp("src/b.go", "Foo")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Positive(t, a)
}

func TestContentHash(t *testing.T) {
	h := ContentHash("func main() {}")
	assert.Len(t, h, 64)
	assert.Equal(t, h, ContentHash("func main() {}"))
	assert.NotEqual(t, h, ContentHash("func main() {}\n"))
}

func TestSubfolderLevels(t *testing.T) {
	cases := []struct {
		path   string
		l1, l2 string
	}{
		{"Cargo.toml", ".", ""},
		{"src/main.rs", "src", ""},
		{"crates/parseltongue-core/src/lib.rs", "crates", "parseltongue-core"},
		{"", ".", ""},
	}
	for _, c := range cases {
		l1, l2 := SubfolderLevels(c.path)
		assert.Equal(t, c.l1, l1, c.path)
		assert.Equal(t, c.l2, l2, c.path)
	}
}

func TestNormalizeRelativePath(t *testing.T) {
	got := NormalizeRelativePath(`C:\repo\src\main.go`, `C:\repo`)
	assert.Equal(t, "src/main.go", got)
}
