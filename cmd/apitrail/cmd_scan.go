package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/apitrail/pkg/config"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/metrics"
	"github.com/odvcencio/apitrail/pkg/object"
	"github.com/odvcencio/apitrail/pkg/pipeline"
)

func newScanCmd() *cobra.Command {
	var (
		configPath string
		flags      = config.Default()
	)

	cmd := &cobra.Command{
		Use:          "scan",
		Short:        "Write one API change log per component found under a repository root",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			overlayFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Root:    cfg.Root,
				Output:  cfg.Output,
				Workers: cfg.EffectiveWorkers(),
				Discovery: discovery.Options{
					Extensions: cfg.ArchiveExtensions,
					Limit:      cfg.MaxArchives,
				},
				Metrics: metrics.New(),
				Logger:  logger,
			}
			if cfg.CacheDir != "" {
				opts.Cache = object.NewStore(cfg.CacheDir)
			}

			sum, runErr := pipeline.Run(cmd.Context(), opts)
			if cfg.MetricsFile != "" {
				if err := opts.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
					logger.Error("metrics export failed", "error", err)
				}
			}
			if sum == nil {
				return runErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			if runErr != nil {
				return runErr
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d component reports failed: %w", sum.Failed, sum.Components, sum.Err())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML configuration file")
	f.StringVar(&flags.Root, "root", "", "repository root to scan")
	f.StringVarP(&flags.Output, "output", "o", "", "directory receiving the change logs")
	f.IntVarP(&flags.Workers, "workers", "j", 0, "concurrent component tasks (default: number of CPUs)")
	f.IntVar(&flags.MaxArchives, "limit", 0, "maximum number of archives to discover (0 = no limit)")
	f.StringSliceVar(&flags.ArchiveExtensions, "ext", flags.ArchiveExtensions, "archive file extensions")
	f.StringVar(&flags.CacheDir, "cache-dir", "", "cache decoded archives in this directory")
	f.StringVar(&flags.MetricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	f.StringVar(&flags.Log.Level, "log-level", flags.Log.Level, "log level: debug, info, warn, error")
	f.StringVar(&flags.Log.Format, "log-format", flags.Log.Format, "log format: text, logfmt, json")
	return cmd
}

// overlayFlags copies every flag the user set explicitly over cfg, so flags
// win over the file and the file wins over defaults.
func overlayFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Root = flags.Root
	}
	if changed("output") {
		cfg.Output = flags.Output
	}
	if changed("workers") {
		cfg.Workers = flags.Workers
	}
	if changed("limit") {
		cfg.MaxArchives = flags.MaxArchives
	}
	if changed("ext") {
		cfg.ArchiveExtensions = flags.ArchiveExtensions
	}
	if changed("cache-dir") {
		cfg.CacheDir = flags.CacheDir
	}
	if changed("metrics-file") {
		cfg.MetricsFile = flags.MetricsFile
	}
	if changed("log-level") {
		cfg.Log.Level = flags.Log.Level
	}
	if changed("log-format") {
		cfg.Log.Format = flags.Log.Format
	}
}
