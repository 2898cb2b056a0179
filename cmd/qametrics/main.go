package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "qametrics",
		Usage:    "Structural code metrics for Java repositories",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `qametrics builds a block tree for every source file without a grammar,
then reports cyclomatic complexity, CK-style class metrics (WMC, LCOM4, DIT,
NOC), comment density, assertion coverage and git history.

Global flags go before the command, e.g. qametrics -f json analyze src/`,
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			return loadDotenv(".env")
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			classesCmd(),
			complexityCmd(),
			linesCmd(),
			treeCmd(),
			reportCmd(),
			configCmd(),
			cacheCmd(),
			watchCmd(),
			mcpCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{config.EnvConfigPath},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, yaml, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable caching",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable verbose output",
		},
		&cli.BoolFlag{
			Name:  "log-json",
			Usage: "Write log messages as JSON",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of files parsed in parallel (0 = 2x CPUs)",
		},
	}
}

// loadDotenv loads environment variables from path. A missing file is not an
// error; existing variables are never overridden.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
