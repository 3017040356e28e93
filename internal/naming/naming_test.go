package naming_test

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sandwichfarm/schemata/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAliasRoot = "/repo/dist/@"
	testSpecsRoot = "/repo/dist/nips"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func newTestDeriver() *naming.Deriver {
	return naming.NewDeriver(testAliasRoot, testSpecsRoot)
}

func TestDeriver_Derive(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "underscore tag file",
			path: "/repo/dist/nips/nip-01/tag/_a.json",
			want: "ATagSchema",
		},
		{
			name: "underscore tag file with longer name",
			path: "/repo/dist/nips/nip-01/tag/_relay.json",
			want: "RelayTagSchema",
		},
		{
			name: "plain tag file",
			path: "/repo/dist/nips/nip-01/tag/p.json",
			want: "pTagSchema",
		},
		{
			name: "single underscore tag file is kept",
			path: "/repo/dist/nips/nip-01/tag/_.json",
			want: "TagSchema",
		},
		{
			name: "schema under tag",
			path: "/repo/dist/nips/nip-01/tag/schema.json",
			want: "tagSchema",
		},
		{
			name: "tag variant directory",
			path: "/repo/dist/nips/nip-01/tag/p/schema.json",
			want: "pTagSchema",
		},
		{
			name: "underscore tag variant directory",
			path: "/repo/dist/nips/nip-01/tag/_e/schema.json",
			want: "ETagSchema",
		},
		{
			name: "schema.content under hyphenated parent",
			path: "/repo/dist/nips/nip-02/kind-3/schema.content.json",
			want: "kind3ContentSchema",
		},
		{
			name: "plain schema drops basename",
			path: "/repo/dist/nips/nip-02/kind-3/schema.json",
			want: "kind3Schema",
		},
		{
			name: "multi segment parent",
			path: "/repo/dist/nips/nip-01/client-req-auth/schema.json",
			want: "clientReqAuthSchema",
		},
		{
			name: "mixed case parent is folded",
			path: "/repo/dist/nips/nip-01/Relay-OK/schema.json",
			want: "relayOkSchema",
		},
		{
			name: "other basename is appended unchanged",
			path: "/repo/dist/nips/nip-01/note/extra.json",
			want: "noteextraSchema",
		},
		{
			name: "alias root file",
			path: "/repo/dist/@/note.json",
			want: "noteSchema",
		},
		{
			name: "alias root file lowers first letter",
			path: "/repo/dist/@/Note.json",
			want: "noteSchema",
		},
		{
			name: "alias root schema.x file",
			path: "/repo/dist/@/schema.kind.json",
			want: "kindSchema",
		},
		{
			name: "alias subdirectory uses default rule",
			path: "/repo/dist/@/event/schema.json",
			want: "eventSchema",
		},
		{
			name: "alias tag file",
			path: "/repo/dist/@/tag/_e.json",
			want: "ETagSchema",
		},
		{
			name: "punctuation is stripped",
			path: "/repo/dist/nips/nip-01/kind_1/schema.json",
			want: "kind1Schema",
		},
	}

	d := newTestDeriver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Derive(filepath.FromSlash(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, identifierPattern, got)
		})
	}
}

func TestDeriver_TagVariantSecondaryFileExcluded(t *testing.T) {
	d := newTestDeriver()

	_, err := d.Derive("/repo/dist/nips/nip-01/tag/p/schema.content.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, naming.ErrExcluded)

	_, err = d.Derive("/repo/dist/nips/nip-01/tag/p/other.json")
	assert.ErrorIs(t, err, naming.ErrExcluded)
}

func TestDeriver_TagParentWinsOverTagGrandparent(t *testing.T) {
	got, err := newTestDeriver().Derive("/repo/dist/nips/tag/tag/x.json")
	require.NoError(t, err)
	assert.Equal(t, "xTagSchema", got)
}

func TestDeriver_AliasRuleOnlyUnderAliasRoot(t *testing.T) {
	d := newTestDeriver()

	// A directory named "@" under the specs root is not the alias root.
	got, err := d.DeriveSpecs("/repo/dist/nips/@/note.json")
	require.NoError(t, err)
	assert.Equal(t, "noteSchema", got)

	got, err = d.DeriveSpecs("/repo/dist/nips/@/Note.json")
	require.NoError(t, err)
	assert.Equal(t, "NoteSchema", got)

	got, err = d.DeriveAlias("/repo/dist/@/Note.json")
	require.NoError(t, err)
	assert.Equal(t, "noteSchema", got)
}

func TestDeriver_InvalidIdentifiers(t *testing.T) {
	d := newTestDeriver()

	_, err := d.Derive("/repo/dist/nips/01/schema.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, naming.ErrInvalidIdentifier)
	assert.Contains(t, err.Error(), "01Schema")
}

func TestDeriver_UnnamedFallback(t *testing.T) {
	got, err := naming.Derive(naming.Context{Base: "schema", Processed: "", Root: naming.RootSpecs})
	require.NoError(t, err)
	assert.Equal(t, "UnnamedSchema", got)
}

func TestDeriver_Idempotent(t *testing.T) {
	d := newTestDeriver()
	path := "/repo/dist/nips/nip-02/kind-3/schema.content.json"

	first, err := d.Derive(path)
	require.NoError(t, err)
	second, err := d.Derive(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcessBaseName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"schema", ""},
		{"schema.content", "Content"},
		{"schema.schema", "Schema"},
		{"schema.", ""},
		{"note", "note"},
		{"schemas", "schemas"},
		{"Schema", "Schema"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.ProcessBaseName(tt.base))
		})
	}
}

func TestCamelCaseHyphens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"client-req-auth", "clientReqAuth"},
		{"kind-3", "kind3"},
		{"KIND", "kind"},
		{"--a--b-", "aB"},
		{"", ""},
		{"-", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.CamelCaseHyphens(tt.in))
		})
	}
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "A", naming.TagName("_a"))
	assert.Equal(t, "Relay", naming.TagName("_relay"))
	assert.Equal(t, "_", naming.TagName("_"))
	assert.Equal(t, "p", naming.TagName("p"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "noteSchema", naming.Sanitize("@note-Schema"))
	assert.Equal(t, "abc123", naming.Sanitize("a.b_c 1/2\\3"))
	assert.Equal(t, "ab", naming.Sanitize("aéb"))
}
