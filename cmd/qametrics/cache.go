package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/cache"
	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the analysis cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count, size and age",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: runCacheClear,
			},
		},
	}
}

// openCache opens the configured cache even when --no-cache is set, since
// the cache commands manage the store rather than read through it.
func openCache(c *cli.Context) (*cache.Cache, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Dir, err)
	}
	return store, cfg, nil
}

func runCacheStats(c *cli.Context) error {
	store, cfg, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := output.NewTable(
		"Cache",
		[]string{"Directory", "Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			cfg.Cache.Dir,
			fmt.Sprintf("%d", stats.Entries),
			formatBytes(stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil,
		stats,
	)
	return formatter.Output(table)
}

func runCacheClear(c *cli.Context) error {
	store, cfg, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	output.New(output.FormatText, c.App.Writer, !color.NoColor).Success("Cache cleared: %s", cfg.Cache.Dir)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
