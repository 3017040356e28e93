package commands

import (
	"log"

	"github.com/sandwichfarm/schemata/internal/bundler"
	"github.com/sandwichfarm/schemata/internal/config"
	"github.com/spf13/cobra"
)

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// NewRootCommand wires every sub-command.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "schemata",
		Short:         "Build the NIP JSON Schema bundle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRewriteRefsCommand(),
		newDerefCommand(),
		newBuildCommand(),
		newCompileCommand(),
		newValidateCommand(),
		newAllCommand(),
		newVersionCommand(info),
	)
	return root
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			log.Printf("schemata %s (commit: %s, built: %s)", info.Version, info.GitCommit, info.BuildTime)
		},
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load("")
}

func newBundler(cfg *config.Config) *bundler.ESBuild {
	return bundler.New(bundler.Options{
		Minify:    cfg.Minify,
		Sourcemap: cfg.Sourcemap,
		Target:    cfg.Target,
	})
}
