package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dedup/pkg/config"
)

// newGenConfigCmd prints a config file template with the built-in
// defaults, ready to edit and drop next to the directories to scan.
func newGenConfigCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "gen-config",
		Short: "Print a config file template",
		Long: `Print a configuration template with the built-in defaults to stdout.
Save it as dedup.toml (or dedup.yaml) in your working directory, or point
at it with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := config.Template(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Template format: toml or yaml")

	return cmd
}
