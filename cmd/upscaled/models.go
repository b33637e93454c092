package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"upscaled/internal/catalog"
	"upscaled/internal/config"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List model and scale combinations and whether their weights exist",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(g.configPath, config.Config{
				WeightsDir:     g.weightsDir,
				WeightsPattern: g.weightsPattern,
			})
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.WeightsDir, cfg.WeightsPattern)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tSCALE\tAVAILABLE\tPATH")
			for _, e := range cat.Available() {
				fmt.Fprintf(w, "%s\t%dx\t%t\t%s\n", e.Model, e.Scale, e.Available, e.Path)
			}
			return w.Flush()
		},
	}
}
