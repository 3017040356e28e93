// Package naming derives the export identifier of a schema file from its
// location in the dist tree.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrExcluded is returned for files that deliberately get no export,
	// such as secondary files next to a tag variant's schema.json.
	ErrExcluded = errors.New("file excluded from bundle")

	// ErrInvalidIdentifier is returned when the derived name is not a usable
	// bare identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

const (
	tagDir      = "tag"
	aliasMarker = "@"
	schemaBase  = "schema"
	schemaDot   = "schema."
	jsonExt     = ".json"
	suffix      = "Schema"
	tagSuffix   = "TagSchema"
	unnamed     = "Unnamed"
)

// Root identifies which of the two trees a file was discovered under.
type Root int

const (
	RootSpecs Root = iota
	RootAlias
)

func (r Root) String() string {
	if r == RootAlias {
		return "alias"
	}
	return "specs"
}

// Context is everything a naming rule may look at. It is derived from a
// path and never cached.
type Context struct {
	Base        string // basename without the .json extension
	Processed   string // Base after ProcessBaseName
	Parent      string
	Grandparent string
	Root        Root
}

// NewContext splits path into the parts the naming rules use.
func NewContext(path string, root Root) Context {
	base := strings.TrimSuffix(filepath.Base(path), jsonExt)
	dirs := splitDirs(filepath.Dir(path))

	ctx := Context{
		Base:      base,
		Processed: ProcessBaseName(base),
		Root:      root,
	}
	if n := len(dirs); n > 0 {
		ctx.Parent = dirs[n-1]
		if n > 1 {
			ctx.Grandparent = dirs[n-2]
		}
	}
	return ctx
}

func splitDirs(dir string) []string {
	return strings.FieldsFunc(dir, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// Deriver maps schema files under the alias and specs roots to identifiers.
type Deriver struct {
	AliasRoot string
	SpecsRoot string
}

// NewDeriver returns a Deriver for the two roots.
func NewDeriver(aliasRoot, specsRoot string) *Deriver {
	return &Deriver{
		AliasRoot: filepath.Clean(aliasRoot),
		SpecsRoot: filepath.Clean(specsRoot),
	}
}

// Derive names path, picking the root from the path's location. Files
// outside the alias root are named with the specs rules.
func (d *Deriver) Derive(path string) (string, error) {
	if within(d.AliasRoot, path) {
		return d.DeriveAlias(path)
	}
	return d.DeriveSpecs(path)
}

// DeriveAlias names a file discovered under the alias root.
func (d *Deriver) DeriveAlias(path string) (string, error) {
	return Derive(NewContext(path, RootAlias))
}

// DeriveSpecs names a file discovered under the specs root.
func (d *Deriver) DeriveSpecs(path string) (string, error) {
	return Derive(NewContext(path, RootSpecs))
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Derive applies the first matching rule to ctx, then sanitizes and checks
// the result.
func Derive(ctx Context) (string, error) {
	for _, r := range rules {
		if !r.match(ctx) {
			continue
		}
		name, err := r.apply(ctx)
		if err != nil {
			return "", fmt.Errorf("%s rule: %w", r.name, err)
		}
		return checkIdentifier(Sanitize(name))
	}
	return "", fmt.Errorf("%w: no naming rule matched", ErrInvalidIdentifier)
}

func checkIdentifier(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "", fmt.Errorf("%w: %q starts with a digit", ErrInvalidIdentifier, name)
	}
	return name, nil
}

// ProcessBaseName drops a bare "schema" basename and turns "schema.<rest>"
// into "<Rest>". Anything else is returned unchanged.
func ProcessBaseName(base string) string {
	if base == schemaBase {
		return ""
	}
	if rest, ok := strings.CutPrefix(base, schemaDot); ok {
		return upperFirst(rest)
	}
	return base
}

// TagName turns a tag file or directory name into the identifier prefix:
// "_a" becomes "A", anything else is kept.
func TagName(name string) string {
	if len(name) > 1 && name[0] == '_' {
		return upperFirst(name[1:])
	}
	return name
}

// CamelCaseHyphens folds "client-req-auth" into "clientReqAuth".
func CamelCaseHyphens(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' })
	if len(parts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		b.WriteString(upperFirst(strings.ToLower(p)))
	}
	return b.String()
}

// Sanitize removes everything but ASCII letters and digits.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
