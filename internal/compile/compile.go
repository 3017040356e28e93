// Package compile turns the schema source tree (YAML or JSON) into the JSON
// dist tree that the rest of the build works on.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/sandwichfarm/schemata/internal/document"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedNode is returned for YAML constructs with no JSON form.
var ErrUnsupportedNode = errors.New("unsupported YAML node")

// Compiler mirrors SourceDir into DistDir, converting YAML files to JSON.
type Compiler struct {
	SourceDir string
	DistDir   string
	Verbose   bool
}

// Run converts every .yaml, .yml and .json file below SourceDir and returns
// the written paths. Other files are ignored.
func (c *Compiler) Run(ctx context.Context) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(c.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", c.SourceDir, err)
	}
	sort.Strings(sources)

	written := make([]string, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		rel, err := filepath.Rel(c.SourceDir, src)
		if err != nil {
			return written, fmt.Errorf("failed to relativize %s: %w", src, err)
		}
		out := filepath.Join(c.DistDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")

		if err := CompileFile(src, out); err != nil {
			return written, err
		}
		if c.Verbose {
			log.Printf("Compiled %s -> %s", src, out)
		}
		written = append(written, out)
	}
	return written, nil
}

// CompileFile converts one source file to pretty-printed JSON at out.
func CompileFile(src, out string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(src)) {
	case ".yaml", ".yml":
		doc, err = FromYAML(data)
	default:
		doc, err = document.Parse(data)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", src, err)
	}

	return document.Write(out, doc)
}

// FromYAML decodes the first document in data, keeping mapping order.
func FromYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, document.ErrEmpty
	}
	return fromNode(&root)
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, document.ErrEmpty
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		return fromMapping(n)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: kind %d at line %d", ErrUnsupportedNode, n.Kind, n.Line)
	}
}

func fromMapping(n *yaml.Node) (*orderedmap.OrderedMap, error) {
	obj := orderedmap.New()
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: non-scalar mapping key at line %d", ErrUnsupportedNode, key.Line)
		}
		if key.ShortTag() == "!!merge" {
			merges = append(merges, value)
			continue
		}
		v, err := fromNode(value)
		if err != nil {
			return nil, err
		}
		obj.Set(key.Value, v)
	}

	// Keys written explicitly take precedence over merged ones.
	for _, m := range merges {
		if err := merge(obj, m); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func merge(obj *orderedmap.OrderedMap, n *yaml.Node) error {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if err := merge(obj, c); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
		src, err := fromMapping(n)
		if err != nil {
			return err
		}
		for _, k := range src.Keys() {
			if _, exists := obj.Get(k); exists {
				continue
			}
			v, _ := src.Get(k)
			obj.Set(k, v)
		}
		return nil
	default:
		return fmt.Errorf("%w: merge value at line %d is not a mapping", ErrUnsupportedNode, n.Line)
	}
}
