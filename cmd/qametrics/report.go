package main

import (
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/remote"
	"github.com/qalab/qametrics/internal/report"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Generate an HTML metrics report",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Skip reading git commit history",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: report.DefaultTop,
				Usage: "Classes listed per ranked section",
			},
		},
		Action: runReportCmd,
	}
}

func runReportCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	noHistory := c.Bool("no-history")

	paths, cleanup, err := resolvePaths(c, noHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := analyzeRepository(c, svc, paths, noHistory)
	if err != nil {
		return err
	}
	if rep.Summary.Files == 0 {
		warn(c.App.ErrWriter, "No source files found")
		return nil
	}

	renderer, err := report.NewRenderer(c.Int("top"))
	if err != nil {
		return err
	}
	data := renderer.Build(report.Metadata{
		Repository:  repositoryName(getPaths(c)[0]),
		GeneratedAt: rep.GeneratedAt,
		Version:     version,
		Paths:       getPaths(c),
	}, rep)

	if out := c.String("output"); out != "" {
		return renderer.RenderToFile(out, data)
	}
	return renderer.Render(c.App.Writer, data)
}

// repositoryName is the display name of the first analyzed path: the URL
// without scheme for remote references, the directory name otherwise.
func repositoryName(path string) string {
	if src, err := remote.Parse(path); err == nil && src != nil {
		name := strings.TrimPrefix(src.URL, "https://")
		name = strings.TrimPrefix(name, "http://")
		return strings.TrimSuffix(name, ".git")
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Base(abs)
	}
	return path
}
