// Package deref inlines every "$ref" of a schema, producing a self-contained
// document. References are resolved as URIs with go-openapi/jsonreference and
// their fragments as JSON pointers, on the ordered document, so any keyword of
// any draft is expanded and key order is kept.
package deref

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-openapi/jsonpointer"
	"github.com/go-openapi/jsonreference"
	"github.com/iancoleman/orderedmap"
	"github.com/sandwichfarm/schemata/internal/document"
	"github.com/sandwichfarm/schemata/internal/refs"
)

var (
	// ErrUnresolvable is returned when a reference target cannot be loaded
	// or located.
	ErrUnresolvable = errors.New("unresolvable reference")

	// ErrCircular is returned when a reference leads back to itself and so
	// cannot be inlined.
	ErrCircular = errors.New("circular reference")
)

// Values of these keywords are instance data, not schemas.
var literalKeywords = map[string]bool{
	"const":    true,
	"default":  true,
	"enum":     true,
	"examples": true,
}

// Members of these keywords are keyed by name, so their keys are never
// keywords themselves.
var nameKeywords = map[string]bool{
	"$defs":             true,
	"definitions":       true,
	"dependencies":      true,
	"dependentSchemas":  true,
	"patternProperties": true,
	"properties":        true,
}

// Annotations written next to a "$ref" override the target's.
var annotationKeywords = map[string]bool{
	"$comment":    true,
	"default":     true,
	"deprecated":  true,
	"description": true,
	"examples":    true,
	"readOnly":    true,
	"title":       true,
	"writeOnly":   true,
}

// Resolver expands references, caching every file it loads and every target
// it has expanded. A Resolver is not safe for concurrent use.
type Resolver struct {
	docs     map[string]any
	expanded map[string]any
	active   map[string]bool
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		docs:     make(map[string]any),
		expanded: make(map[string]any),
		active:   make(map[string]bool),
	}
}

// Resolve returns a copy of doc with every reference replaced by its target.
// basePath is the file doc was read from; local fragments and relative
// references resolve against it.
func (r *Resolver) Resolve(doc any, basePath string) (any, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	base, err := fileRef(abs)
	if err != nil {
		return nil, err
	}
	r.docs[abs] = doc
	return r.expand(doc, base, false)
}

// expand copies node with its references inlined. names is set when node is
// the value of a keyword in nameKeywords.
func (r *Resolver) expand(node any, base jsonreference.Ref, names bool) (any, error) {
	switch n := node.(type) {
	case *orderedmap.OrderedMap:
		return r.expandObject(n, base, names)
	case orderedmap.OrderedMap:
		return r.expandObject(&n, base, names)
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			v, err := r.expand(item, base, false)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return node, nil
	}
}

func (r *Resolver) expandObject(obj *orderedmap.OrderedMap, base jsonreference.Ref, names bool) (any, error) {
	siblings := orderedmap.New()
	var ref string
	hasRef := false

	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		if names {
			v, err := r.expand(value, base, false)
			if err != nil {
				return nil, err
			}
			siblings.Set(key, v)
			continue
		}
		if s, ok := value.(string); ok && key == refs.RefKey {
			ref, hasRef = s, true
			continue
		}
		if literalKeywords[key] {
			siblings.Set(key, value)
			continue
		}
		v, err := r.expand(value, base, nameKeywords[key])
		if err != nil {
			return nil, err
		}
		siblings.Set(key, v)
	}
	if !hasRef {
		return siblings, nil
	}

	target, err := r.resolve(ref, base)
	if err != nil {
		return nil, err
	}
	return inline(obj.Keys(), siblings, target), nil
}

func (r *Resolver) resolve(ref string, base jsonreference.Ref) (any, error) {
	child, err := jsonreference.New(ref)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, ref, err)
	}
	resolved, err := base.Inherits(child)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, ref, err)
	}

	u := resolved.GetURL()
	if u.Scheme != "file" {
		return nil, fmt.Errorf("%w %q: only local files are supported", ErrUnresolvable, ref)
	}

	key := resolved.String()
	if v, ok := r.expanded[key]; ok {
		return v, nil
	}
	if r.active[key] {
		return nil, fmt.Errorf("%w: %s", ErrCircular, key)
	}
	r.active[key] = true
	defer delete(r.active, key)

	path := filepath.FromSlash(u.Path)
	doc, err := r.load(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, ref, err)
	}
	node, err := lookup(doc, u.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, ref, err)
	}

	docBase, err := fileRef(path)
	if err != nil {
		return nil, err
	}
	v, err := r.expand(node, docBase, false)
	if err != nil {
		return nil, err
	}
	r.expanded[key] = v
	return v, nil
}

func (r *Resolver) load(path string) (any, error) {
	if doc, ok := r.docs[path]; ok {
		return doc, nil
	}
	doc, err := document.Read(path)
	if err != nil {
		return nil, err
	}
	r.docs[path] = doc
	return doc, nil
}

func fileRef(abs string) (jsonreference.Ref, error) {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	ref, err := jsonreference.New(u.String())
	if err != nil {
		return jsonreference.Ref{}, fmt.Errorf("invalid base path %s: %w", abs, err)
	}
	return ref, nil
}

// lookup returns the node of doc that fragment points at. An empty fragment
// is the whole document.
func lookup(doc any, fragment string) (any, error) {
	if fragment == "" {
		return doc, nil
	}
	ptr, err := jsonpointer.New(fragment)
	if err != nil {
		return nil, fmt.Errorf("unsupported fragment %q: %w", fragment, err)
	}

	node := doc
	for _, token := range ptr.DecodedTokens() {
		next, ok := child(node, token)
		if !ok {
			return nil, fmt.Errorf("no value at %q", fragment)
		}
		node = next
	}
	return node, nil
}

func child(node any, token string) (any, bool) {
	switch n := node.(type) {
	case *orderedmap.OrderedMap:
		return n.Get(token)
	case orderedmap.OrderedMap:
		return n.Get(token)
	case []any:
		i, err := strconv.Atoi(token)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// inline replaces the "$ref" member at its position in keys with the
// target's members. When a sibling keyword clashes with the target, or the
// target is not an object, the target is kept whole under "allOf" instead.
func inline(keys []string, siblings *orderedmap.OrderedMap, target any) any {
	if len(siblings.Keys()) == 0 {
		return target
	}

	t, ok := target.(*orderedmap.OrderedMap)
	if !ok || clashes(siblings, t) {
		allOf := []any{target}
		if existing, ok := siblings.Get("allOf"); ok {
			if items, ok := existing.([]any); ok {
				allOf = append(append([]any{}, items...), target)
			}
		}
		siblings.Set("allOf", allOf)
		return siblings
	}

	out := orderedmap.New()
	for _, key := range keys {
		if key != refs.RefKey {
			if v, ok := siblings.Get(key); ok {
				out.Set(key, v)
			}
			continue
		}
		for _, k := range t.Keys() {
			if _, dup := siblings.Get(k); dup {
				continue
			}
			v, _ := t.Get(k)
			out.Set(k, v)
		}
	}
	return out
}

func clashes(siblings, target *orderedmap.OrderedMap) bool {
	for _, key := range siblings.Keys() {
		if _, ok := target.Get(key); ok && !annotationKeywords[key] {
			return true
		}
	}
	return false
}

// Dereference parses data and expands its references. basePath is the
// location data was read from.
func Dereference(data []byte, basePath string) (any, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	out, err := NewResolver().Resolve(doc, basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference %s: %w", basePath, err)
	}
	return out, nil
}

// DereferenceFile dereferences the schema at in and writes it to out,
// replacing any existing file.
func DereferenceFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	schema, err := Dereference(data, in)
	if err != nil {
		return err
	}

	return document.Write(out, schema)
}
