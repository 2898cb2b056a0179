package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes qametrics
analysis as tools that LLMs can invoke.

To use with an MCP client, add to its config:
  {
    "mcpServers": {
      "qametrics": {
        "command": "qametrics",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_repository    Full repository report with class metrics and history
  - analyze_file          Block structure and metrics for one file
  - list_classes          Classes ranked by LCOM4, WMC, DIT or name`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, svc).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
