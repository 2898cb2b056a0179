package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/logging"
	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/internal/progress"
	"github.com/qalab/qametrics/internal/remote"
	"github.com/qalab/qametrics/internal/service/analysis"
	"github.com/qalab/qametrics/pkg/config"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// resolvePaths clones remote repository references (owner/repo[@ref] or a
// git URL) among the command's paths. Local paths are returned unchanged;
// the cleanup func removes the clones.
func resolvePaths(c *cli.Context, shallow bool) ([]string, func(), error) {
	paths := getPaths(c)
	var clones []*remote.Source
	cleanup := func() {
		for _, src := range clones {
			src.Cleanup()
		}
	}

	resolved := make([]string, len(paths))
	for i, p := range paths {
		src, err := remote.Parse(p)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if src == nil {
			resolved[i] = p
			continue
		}
		var spinner *progress.Tracker
		if color.NoColor {
			fmt.Fprintf(c.App.ErrWriter, "Cloning %s...\n", src.URL)
		} else {
			spinner = progress.NewSpinner(c.App.ErrWriter, "Cloning "+src.URL)
		}
		if err := src.Clone(c.Context, spinner, shallow); err != nil {
			spinner.FinishError(err)
			cleanup()
			return nil, nil, err
		}
		spinner.FinishSuccess()
		clones = append(clones, src)
		resolved[i] = src.CloneDir
	}
	return resolved, cleanup, nil
}

// loadConfig resolves the config file (flag, env, then standard locations),
// applies command-line overrides and validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	path := c.String("config")
	if path == "" {
		path = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if w := c.Int("workers"); w > 0 {
		cfg.Analysis.Workers = w
	}
	if f := c.String("format"); f != "" {
		cfg.Output.Format = normalizeFormat(f)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// normalizeFormat maps short aliases to format names. Unknown names are
// returned unchanged so validation can report them.
func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "md":
		return string(output.FormatMarkdown)
	case "yml":
		return string(output.FormatYAML)
	}
	return strings.ToLower(f)
}

func newLogger(c *cli.Context, cfg *config.Config) *log.Logger {
	opts := []logging.Option{logging.WithOutput(c.App.ErrWriter)}
	if c.Bool("log-json") {
		opts = append(opts, logging.WithJSON())
	}
	return logging.New(cfg.Output.Verbose, opts...)
}

// newService builds the analysis service for a command, with caching when
// the config enables it.
func newService(c *cli.Context) (*analysis.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := newLogger(c, cfg)

	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(logger)}
	cache, err := analysis.NewCache(cfg)
	if err != nil {
		logger.WithError(err).Warn("cache disabled")
	} else if cache != nil {
		opts = append(opts, analysis.WithCache(cache))
	}
	return analysis.New(opts...), nil
}

// newFormatter writes to --output when given, otherwise to the app writer.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := output.ParseFormat(cfg.Output.Format)
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.New(format, c.App.Writer, cfg.Output.Color && !color.NoColor), nil
}

// showProgress reports whether a progress bar may be drawn without
// corrupting machine-readable output.
func showProgress(c *cli.Context, cfg *config.Config) bool {
	if c.String("output") != "" {
		return true
	}
	return output.ParseFormat(cfg.Output.Format) == output.FormatText && !color.NoColor
}

func warn(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}
