package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagebinder/internal/config"
)

// addJobFlags registers the flags shared by every command that runs jobs.
func addJobFlags(cmd *cobra.Command) {
	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each fetch attempt")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Total fetch attempts per page, including the first")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryDelay,
		"Fixed delay between fetch attempts")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond,
		"Maximum requests per second across all workers (0 = unlimited)")
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Crawl flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent fetches per crawl wave")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages to fetch (0 = unlimited)")
	cmd.Flags().IntP("max-depth", "d", 0,
		"Maximum number of waves after the base page (0 = unlimited)")

	// Document flags
	cmd.Flags().IntP("quality", "q", config.DefaultImageQuality,
		"JPEG quality (1-100) for re-encoded images")
	cmd.Flags().String("work-dir", config.XDGJobsDir(),
		"Directory for per-job working files")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the job ledger (empty disables it)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagebinder.yaml in current or home directory)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the flags registered by addJobFlags and
// loads the configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = flags.GetDuration("retry-delay"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.ImageQuality, err = flags.GetInt("quality"); err != nil {
		return nil, err
	}
	if cfg.WorkDir, err = flags.GetString("work-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.Settings, err = loadSettings(cfg.ConfigFilePath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSettings loads the configuration file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file yields empty settings.
func loadSettings(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return config.NewFile(), nil
	}

	settings, err := config.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && explicitPath == "" {
			return config.NewFile(), nil
		}
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return settings, nil
}
