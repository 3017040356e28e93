package compile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandwichfarm/schemata/internal/compile"
	"github.com/sandwichfarm/schemata/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAML_KeepsOrderAndTypes(t *testing.T) {
	doc, err := compile.FromYAML([]byte(`
$schema: http://json-schema.org/draft-07/schema#
type: object
required: [kind, content]
properties:
  kind:
    const: 3
  content:
    type: string
  ratio:
    maximum: 1.5
  flag:
    default: true
  none:
    default: null
`))
	require.NoError(t, err)

	out, err := document.Marshal(doc)
	require.NoError(t, err)

	want := `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "kind",
    "content"
  ],
  "properties": {
    "kind": {
      "const": 3
    },
    "content": {
      "type": "string"
    },
    "ratio": {
      "maximum": 1.5
    },
    "flag": {
      "default": true
    },
    "none": {
      "default": null
    }
  }
}`
	assert.Equal(t, want, string(out))
}

func TestFromYAML_AnchorsAndMerges(t *testing.T) {
	doc, err := compile.FromYAML([]byte(`
base: &hex
  type: string
  pattern: "^[a-f0-9]{64}$"
id: *hex
pubkey:
  <<: *hex
  pattern: "^[a-f0-9]{64}$|^npub"
`))
	require.NoError(t, err)

	out, err := document.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"base": {"type": "string", "pattern": "^[a-f0-9]{64}$"},
		"id": {"type": "string", "pattern": "^[a-f0-9]{64}$"},
		"pubkey": {"pattern": "^[a-f0-9]{64}$|^npub", "type": "string"}
	}`, string(out))
}

func TestFromYAML_Errors(t *testing.T) {
	_, err := compile.FromYAML([]byte(""))
	assert.ErrorIs(t, err, document.ErrEmpty)

	_, err = compile.FromYAML([]byte("a: [1, 2"))
	assert.Error(t, err)

	_, err = compile.FromYAML([]byte("? [a, b]\n: 1\n"))
	assert.ErrorIs(t, err, compile.ErrUnsupportedNode)
}

func TestCompiler_Run(t *testing.T) {
	src := t.TempDir()
	dist := filepath.Join(t.TempDir(), "dist")

	write := func(rel, content string) {
		path := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	write("nips/nip-02/kind-3/schema.yaml", "type: object\n")
	write("nips/nip-02/kind-3/schema.content.yml", "type: object\n")
	write("@/note.json", `{"$ref":"nips/nip-01/note/schema.json"}`)
	write("README.md", "# ignored")

	c := &compile.Compiler{SourceDir: src, DistDir: dist}
	written, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dist, "@", "note.json"),
		filepath.Join(dist, "nips", "nip-02", "kind-3", "schema.content.json"),
		filepath.Join(dist, "nips", "nip-02", "kind-3", "schema.json"),
	}, written)

	data, err := os.ReadFile(filepath.Join(dist, "nips", "nip-02", "kind-3", "schema.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"type\": \"object\"\n}", string(data))

	assert.NoFileExists(t, filepath.Join(dist, "README.md"))
}

func TestCompiler_RunStopsOnInvalidSource(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "bad.yaml"), []byte("a: [1"), 0600))

	c := &compile.Compiler{SourceDir: src, DistDir: t.TempDir()}
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestCompiler_RunCancelled(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.yaml"), []byte("a: 1"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &compile.Compiler{SourceDir: src, DistDir: t.TempDir()}
	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
