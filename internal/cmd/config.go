package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dshills/matchstyle/internal/config"
)

func newConfigCommand(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the options that result from the defaults, the config file, the
environment and the flags, in a form that can be saved as a config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			return config.Encode(config.Format(format), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(config.FormatTOML), "output format: toml or yaml")
	return cmd
}
