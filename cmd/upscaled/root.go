package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"upscaled/internal/config"
)

// globalFlags are shared by every subcommand that reads configuration.
type globalFlags struct {
	configPath     string
	weightsDir     string
	weightsPattern string
}

func newRootCmd(version string) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:   "upscaled",
		Short: "upscaled serves image super-resolution over HTTP",
		Long: `upscaled upscales images by 2x, 3x or 4x with one of several model
variants and caches every result on disk, keyed by the input bytes and the
full request configuration.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml); defaults to $UPSCALED_CONFIG")
	pf.StringVar(&g.weightsDir, "weights-dir", "", "Directory holding model weight files")
	pf.StringVar(&g.weightsPattern, "weights-pattern", "", "Weight file name pattern with {model} and {scale}")

	root.AddCommand(newServeCmd(&g), newModelsCmd(&g), newVersionCmd(version))
	return root
}

// resolveConfig layers defaults, environment, config file and flags, in that
// order of increasing precedence.
func resolveConfig(path string, flags config.Config) (config.Config, error) {
	cfg := config.Merge(config.Defaults(), config.FromEnv())
	if path == "" {
		path = os.Getenv("UPSCALED_CONFIG")
	}
	if path != "" {
		fileCfg, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Merge(cfg, fileCfg)
	}
	cfg = config.Merge(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the upscaled version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "upscaled", version)
			return err
		},
	}
}
