package commands

import (
	"log"
	"path/filepath"

	"github.com/sandwichfarm/schemata/internal/deref"
	"github.com/sandwichfarm/schemata/internal/refs"
	"github.com/spf13/cobra"
)

func newRewriteRefsCommand() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "rewrite-refs <input> <output>",
		Short: "Rewrite @/ and nips/ references into absolute paths",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if base != "" {
				if cfg.BaseDir, err = filepath.Abs(base); err != nil {
					return err
				}
			}

			changed, err := refs.RewriteFile(args[0], args[1], cfg.BaseDir, cfg.Verbose)
			if err != nil {
				return err
			}
			log.Printf("Rewrote %d references in %s", len(changed), args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "Directory that @/ and nips/ references resolve against (default: dist directory)")
	return cmd
}

func newDerefCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deref <input> <output>",
		Short: "Inline every $ref into a self-contained schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := deref.DereferenceFile(args[0], args[1]); err != nil {
				return err
			}
			log.Printf("Schema written to %s", args[1])
			return nil
		},
	}
}
