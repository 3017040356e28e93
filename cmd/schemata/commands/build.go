package commands

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandwichfarm/schemata/internal/collator"
	"github.com/sandwichfarm/schemata/internal/compile"
	"github.com/sandwichfarm/schemata/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Generate schemas.js, schemas.d.ts and the esbuild bundle",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			res, err := collator.New(pipeline.Options(cfg), newBundler(cfg)).Build()
			if err != nil {
				return err
			}
			log.Printf("Schemas bundled successfully! (%d exports, %d duplicates dropped)", len(res.Entries), len(res.Dropped))
			return nil
		},
	}
}

func newCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Convert YAML schema sources into the JSON dist tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			c := &compile.Compiler{
				SourceDir: cfg.SourceDir,
				DistDir:   cfg.DistDir,
				Verbose:   cfg.Verbose,
			}
			written, err := c.Run(commandContext(cmd))
			if err != nil {
				return err
			}
			log.Printf("Compiled %d files into %s", len(written), cfg.DistDir)
			return nil
		},
	}
}

func newAllCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Compile, rewrite, dereference and bundle in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := pipeline.New(cfg, newBundler(cfg))
			p.Check = check
			res, err := p.Run(ctx)
			if err != nil {
				return err
			}
			log.Printf("Schemas bundled successfully! (%d exports)", len(res.Entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Compile every dereferenced schema against its meta-schema")
	return cmd
}

// commandContext is used when a command runs outside Execute, e.g. in tests.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
