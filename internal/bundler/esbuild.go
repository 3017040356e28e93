// Package bundler builds the generated schema module into a single ES module
// with esbuild.
package bundler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrBundle is returned when esbuild reports errors.
var ErrBundle = errors.New("bundle failed")

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
	"esnext": api.ESNext,
}

// Options controls the esbuild output.
type Options struct {
	Minify    bool
	Sourcemap bool
	Target    string
}

// ESBuild bundles an entry module and everything it imports into one file.
type ESBuild struct {
	opts Options
}

// New returns an ESBuild bundler.
func New(opts Options) *ESBuild {
	return &ESBuild{opts: opts}
}

// Bundle builds entry into outfile as a node-platform ES module.
func (b *ESBuild) Bundle(entry, outfile string) error {
	target, ok := targets[strings.ToLower(b.opts.Target)]
	if !ok {
		return fmt.Errorf("%w: unsupported target %q", ErrBundle, b.opts.Target)
	}

	sourcemap := api.SourceMapNone
	if b.opts.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           outfile,
		AbsWorkingDir:     filepath.Dir(entry),
		Bundle:            true,
		Write:             true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformNode,
		Target:            target,
		Sourcemap:         sourcemap,
		MinifyWhitespace:  b.opts.Minify,
		MinifyIdentifiers: b.opts.Minify,
		MinifySyntax:      b.opts.Minify,
		LogLevel:          api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrBundle, formatMessages(result.Errors))
	}
	return nil
}

func formatMessages(msgs []api.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		lines = append(lines, m.Text)
	}
	return strings.Join(lines, "; ")
}
