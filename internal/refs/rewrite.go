// Package refs rewrites cross-file "$ref" values into absolute paths so the
// dereferencer can resolve them from any working directory.
package refs

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/sandwichfarm/schemata/internal/document"
)

// RefKey is the member name holding a cross reference.
const RefKey = "$ref"

// DefaultMarkers are the reference prefixes resolved against the base
// directory: the alias root and the specs root.
var DefaultMarkers = []string{"@/", "nips/"}

// Rewrite records one changed reference.
type Rewrite struct {
	Pointer string
	From    string
	To      string
}

// Rewriter turns marker-prefixed references into paths under BaseDir.
type Rewriter struct {
	BaseDir string
	Markers []string
}

// NewRewriter returns a Rewriter for baseDir using DefaultMarkers.
func NewRewriter(baseDir string) *Rewriter {
	return &Rewriter{
		BaseDir: baseDir,
		Markers: DefaultMarkers,
	}
}

// Resolve returns the absolute form of ref and whether ref carried one of
// the markers.
func (r *Rewriter) Resolve(ref string) (string, bool) {
	for _, m := range r.Markers {
		if strings.HasPrefix(ref, m) {
			return filepath.Join(r.BaseDir, ref), true
		}
	}
	return ref, false
}

// Rewrite updates doc in place and returns the references it changed.
func (r *Rewriter) Rewrite(doc any) []Rewrite {
	var changed []Rewrite
	Walk(doc, func(ptr, key string, value any) (any, bool) {
		if key != RefKey {
			return nil, false
		}
		ref, ok := value.(string)
		if !ok {
			return nil, false
		}
		abs, ok := r.Resolve(ref)
		if !ok {
			return nil, false
		}
		changed = append(changed, Rewrite{Pointer: ptr, From: ref, To: abs})
		return abs, true
	})
	return changed
}

// RewriteFile reads in, rewrites its references against baseDir and writes
// the result to out. Nothing is written when in cannot be read or parsed.
func RewriteFile(in, out, baseDir string, verbose bool) ([]Rewrite, error) {
	doc, err := document.Read(in)
	if err != nil {
		return nil, err
	}

	changed := NewRewriter(baseDir).Rewrite(doc)
	if verbose {
		for _, c := range changed {
			log.Printf("  %s: %s -> %s", c.Pointer, c.From, c.To)
		}
	}

	if err := document.Write(out, doc); err != nil {
		return nil, fmt.Errorf("failed to write rewritten schema: %w", err)
	}
	return changed, nil
}
