package config

import (
	"fmt"
	"os"
	"path/filepath"

	env "github.com/caarlos0/env/v11"
)

// Config holds the build configuration.
// Every path is resolved to an absolute path by Load, so nothing downstream
// depends on the process working directory.
type Config struct {
	DistDir   string `env:"DIST_DIR" envDefault:"dist" validate:"required"`
	SourceDir string `env:"SOURCE_DIR" envDefault:"src" validate:"required"`

	// Empty means "@", "nips" and "bundle" inside DistDir.
	AliasDir  string `env:"ALIAS_DIR" envDefault:""`
	SpecsDir  string `env:"SPECS_DIR" envDefault:""`
	BundleDir string `env:"BUNDLE_DIR" envDefault:""`

	// BaseDir is the directory that "@/" and "nips/" references resolve
	// against. Empty means DistDir.
	BaseDir string `env:"BASE_DIR" envDefault:""`

	AllowEmpty bool `env:"ALLOW_EMPTY" envDefault:"false"`
	Verbose    bool `env:"VERBOSE" envDefault:"false"`

	// Bundler options
	Minify    bool   `env:"MINIFY" envDefault:"true"`
	Sourcemap bool   `env:"SOURCEMAP" envDefault:"true"`
	Target    string `env:"TARGET" envDefault:"es2020" validate:"oneof=es2015 es2016 es2017 es2018 es2019 es2020 es2021 es2022 es2023 es2024 esnext"`

	// Draft is the JSON Schema draft used when compiling schemas for validation.
	Draft int `env:"DRAFT" envDefault:"7" validate:"oneof=4 6 7 2019 2020"`
}

// NewConfig parses the environment into a Config without resolving paths.
func NewConfig() (*Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix: "SCHEMATA_",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Load parses, validates and resolves the configuration against workDir.
// An empty workDir means the current working directory.
func Load(workDir string) (*Config, error) {
	cfg, err := NewConfig()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
	}
	cfg.Resolve(workDir)

	// The generated module imports schemas as '../<path relative to dist>'.
	if filepath.Dir(cfg.BundleDir) != cfg.DistDir {
		return nil, fmt.Errorf("bundle directory %s must be a direct child of %s", cfg.BundleDir, cfg.DistDir)
	}
	return cfg, nil
}

// Resolve makes every relative path absolute against workDir and derives
// the directories left empty from DistDir.
func (c *Config) Resolve(workDir string) {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(workDir, p)
	}
	inDist := func(p, name string) string {
		if p == "" {
			return filepath.Join(c.DistDir, name)
		}
		return abs(p)
	}

	c.DistDir = abs(c.DistDir)
	c.SourceDir = abs(c.SourceDir)
	c.AliasDir = inDist(c.AliasDir, "@")
	c.SpecsDir = inDist(c.SpecsDir, "nips")
	c.BundleDir = inDist(c.BundleDir, "bundle")
	if c.BaseDir == "" {
		c.BaseDir = c.DistDir
	} else {
		c.BaseDir = abs(c.BaseDir)
	}
}
