package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a qametrics configuration file for syntax errors and invalid values.

Examples:
  qametrics config validate                      # Validates default config locations
  qametrics -c qametrics.toml config validate    # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration as TOML",
				Description: `Shows the merged configuration from defaults, the config file and
command-line overrides.`,
				Action: runConfigShow,
			},
		},
	}
}

// configSource returns the file loadConfig would read, or "".
func configSource(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	return config.Find(".")
}

func runConfigValidate(c *cli.Context) error {
	source := configSource(c)
	if _, err := loadConfig(c); err != nil {
		output.New(output.FormatText, c.App.ErrWriter, !color.NoColor).Error("Configuration validation failed: %v", err)
		return err
	}

	out := output.New(output.FormatText, c.App.Writer, !color.NoColor)
	if source != "" {
		out.Success("Configuration valid: %s", source)
	} else {
		out.Info("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if source := configSource(c); source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
