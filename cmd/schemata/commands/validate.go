package commands

import (
	"fmt"
	"log"

	"github.com/sandwichfarm/schemata/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var (
		schemaPath  string
		contentPath string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "validate <sample>...",
		Short: "Validate sample events against a generated schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			v, err := validation.New(schemaPath, contentPath, cfg.Draft)
			if err != nil {
				return err
			}

			invalid := 0
			for _, sample := range args {
				res, err := v.ValidateFile(sample)
				if err != nil {
					return err
				}
				validation.Report(res)
				if !res.Valid() {
					invalid++
				}
			}

			log.Printf("\n%d of %d samples valid", len(args)-invalid, len(args))
			if strict && invalid > 0 {
				return fmt.Errorf("validation failed: %d of %d samples invalid", invalid, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Event schema (required)")
	cmd.Flags().StringVarP(&contentPath, "content-schema", "c", "", "Schema for the JSON-encoded content field")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any sample is invalid")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
