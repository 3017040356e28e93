// Package pipeline runs the whole build: compile sources, rewrite and
// dereference every dist schema in place, then collate and bundle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/sandwichfarm/schemata/internal/collator"
	"github.com/sandwichfarm/schemata/internal/compile"
	"github.com/sandwichfarm/schemata/internal/config"
	"github.com/sandwichfarm/schemata/internal/deref"
	"github.com/sandwichfarm/schemata/internal/refs"
	"github.com/sandwichfarm/schemata/internal/validation"
)

// Pipeline runs every build step in order.
type Pipeline struct {
	cfg     *config.Config
	bundler collator.Bundler

	// Check compiles every dereferenced schema with the validator.
	Check bool
}

// New returns a Pipeline. bundler may be nil to skip bundling.
func New(cfg *config.Config, bundler collator.Bundler) *Pipeline {
	return &Pipeline{cfg: cfg, bundler: bundler}
}

// Run executes the steps sequentially and stops at the first error.
func (p *Pipeline) Run(ctx context.Context) (*collator.Result, error) {
	if err := p.compile(ctx); err != nil {
		return nil, err
	}

	files, err := p.schemaFiles()
	if err != nil {
		return nil, err
	}
	log.Printf("Processing %d schema files...", len(files))

	// Every file is rewritten before any is dereferenced, so that inlined
	// siblings never carry marker-relative references.
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := refs.RewriteFile(f, f, p.cfg.BaseDir, p.cfg.Verbose); err != nil {
			return nil, err
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := deref.DereferenceFile(f, f); err != nil {
			return nil, err
		}
		if p.Check {
			if _, err := validation.CompileSchema(f, p.cfg.Draft); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collator.New(Options(p.cfg), p.bundler).Build()
}

func (p *Pipeline) compile(ctx context.Context) error {
	if _, err := os.Stat(p.cfg.SourceDir); errors.Is(err, fs.ErrNotExist) {
		log.Printf("No source directory at %s, using existing dist tree", p.cfg.SourceDir)
		return nil
	}

	c := &compile.Compiler{
		SourceDir: p.cfg.SourceDir,
		DistDir:   p.cfg.DistDir,
		Verbose:   p.cfg.Verbose,
	}
	written, err := c.Run(ctx)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	log.Printf("Compiled %d source files into %s", len(written), p.cfg.DistDir)
	return nil
}

func (p *Pipeline) schemaFiles() ([]string, error) {
	specs, err := collator.Scan(p.cfg.SpecsDir)
	if err != nil {
		return nil, err
	}
	alias, err := collator.Scan(p.cfg.AliasDir)
	if err != nil {
		return nil, err
	}
	return append(specs, alias...), nil
}

// Options maps the configuration onto collator options.
func Options(cfg *config.Config) collator.Options {
	return collator.Options{
		DistDir:    cfg.DistDir,
		AliasDir:   cfg.AliasDir,
		SpecsDir:   cfg.SpecsDir,
		BundleDir:  cfg.BundleDir,
		AllowEmpty: cfg.AllowEmpty,
		Verbose:    cfg.Verbose,
	}
}
