// Package collator names every schema in the dist tree and generates the
// re-export module and type declarations that the bundler consumes.
package collator

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sandwichfarm/schemata/internal/naming"
)

var (
	// ErrNoExports is returned when no schema produced an export and empty
	// bundles are not allowed.
	ErrNoExports = errors.New("no schema exports found")
)

const (
	ModuleFile = "schemas.js"
	TypesFile  = "schemas.d.ts"
	BundleFile = "schemas.bundle.js"
)

// Bundler turns the generated module into the distributable artifact.
type Bundler interface {
	Bundle(entry, outfile string) error
}

// Entry is one named export.
type Entry struct {
	Identifier   string
	RelativePath string // slash separated, relative to the dist root
	Path         string
	Root         naming.Root
}

// Options configures a Collator.
type Options struct {
	DistDir    string
	AliasDir   string
	SpecsDir   string
	BundleDir  string
	AllowEmpty bool
	Verbose    bool
}

// Result describes one collation run.
type Result struct {
	Entries    []Entry
	Dropped    []Entry
	Skipped    []string
	ModulePath string
	TypesPath  string
	BundlePath string
}

// Collator generates the bundle inputs and runs the bundler.
type Collator struct {
	opts    Options
	deriver *naming.Deriver
	bundler Bundler
}

// New returns a Collator. bundler may be nil to only write the modules.
func New(opts Options, bundler Bundler) *Collator {
	return &Collator{
		opts:    opts,
		deriver: naming.NewDeriver(opts.AliasDir, opts.SpecsDir),
		bundler: bundler,
	}
}

// Scan returns every .json file under dir in lexical order. A missing dir
// yields no files.
func Scan(dir string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Entries names files discovered under root. Excluded files and files
// without a usable identifier are returned in skipped.
func (c *Collator) Entries(root naming.Root, files []string) (entries []Entry, skipped []string, err error) {
	for _, path := range files {
		var name string
		var derr error
		if root == naming.RootAlias {
			name, derr = c.deriver.DeriveAlias(path)
		} else {
			name, derr = c.deriver.DeriveSpecs(path)
		}

		switch {
		case errors.Is(derr, naming.ErrExcluded):
			if c.opts.Verbose {
				log.Printf("Skipping %s: %v", path, derr)
			}
			skipped = append(skipped, path)
			continue
		case errors.Is(derr, naming.ErrInvalidIdentifier):
			log.Printf("Warning: Skipping %s: %v", path, derr)
			skipped = append(skipped, path)
			continue
		case derr != nil:
			return nil, nil, derr
		}

		rel, err := filepath.Rel(c.opts.DistDir, path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		entries = append(entries, Entry{
			Identifier:   name,
			RelativePath: filepath.ToSlash(rel),
			Path:         path,
			Root:         root,
		})
	}
	return entries, skipped, nil
}

// Dedupe keeps the first entry for every identifier.
func Dedupe(entries []Entry) (kept, dropped []Entry) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Identifier] {
			dropped = append(dropped, e)
			continue
		}
		seen[e.Identifier] = true
		kept = append(kept, e)
	}
	return kept, dropped
}

// Collate scans both roots and merges them, specs entries first so they win
// identifier collisions.
func (c *Collator) Collate() (*Result, error) {
	specsFiles, err := Scan(c.opts.SpecsDir)
	if err != nil {
		return nil, err
	}
	aliasFiles, err := Scan(c.opts.AliasDir)
	if err != nil {
		return nil, err
	}

	specsEntries, specsSkipped, err := c.Entries(naming.RootSpecs, specsFiles)
	if err != nil {
		return nil, err
	}
	aliasEntries, aliasSkipped, err := c.Entries(naming.RootAlias, aliasFiles)
	if err != nil {
		return nil, err
	}

	all := append(specsEntries, aliasEntries...)
	kept, dropped := Dedupe(all)
	for _, d := range dropped {
		log.Printf("Dropping duplicate export %s from %s", d.Identifier, d.RelativePath)
	}

	return &Result{
		Entries: kept,
		Dropped: dropped,
		Skipped: append(specsSkipped, aliasSkipped...),
	}, nil
}

// Build collates, writes schemas.js and schemas.d.ts and runs the bundler.
func (c *Collator) Build() (*Result, error) {
	res, err := c.Collate()
	if err != nil {
		return nil, err
	}

	res.ModulePath, res.TypesPath, err = Write(c.opts.BundleDir, res.Entries)
	if err != nil {
		return nil, err
	}
	log.Printf("Wrote %d exports to %s", len(res.Entries), res.ModulePath)

	if len(res.Entries) == 0 && !c.opts.AllowEmpty {
		return res, ErrNoExports
	}

	if c.bundler == nil {
		return res, nil
	}

	outfile := filepath.Join(c.opts.BundleDir, BundleFile)
	if err := c.bundler.Bundle(res.ModulePath, outfile); err != nil {
		return res, err
	}
	res.BundlePath = outfile
	return res, nil
}

// Write replaces the module and type declaration files in bundleDir.
func Write(bundleDir string, entries []Entry) (modulePath, typesPath string, err error) {
	if err := os.MkdirAll(bundleDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create bundle directory: %w", err)
	}

	modulePath = filepath.Join(bundleDir, ModuleFile)
	typesPath = filepath.Join(bundleDir, TypesFile)

	if err := os.WriteFile(modulePath, []byte(RenderModule(entries)), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", modulePath, err)
	}
	if err := os.WriteFile(typesPath, []byte(RenderTypes(entries)), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", typesPath, err)
	}
	return modulePath, typesPath, nil
}

// RenderModule returns one re-export line per entry.
func RenderModule(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("export { default as %s } from '../%s';", e.Identifier, e.RelativePath)
	}
	return strings.Join(lines, "\n")
}

// RenderTypes returns a declaration block per entry, index aligned with
// RenderModule.
func RenderTypes(entries []Entry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = fmt.Sprintf("declare const %s: unknown;\nexport { %s };", e.Identifier, e.Identifier)
	}
	return strings.Join(blocks, "\n")
}
