package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/internal/progress"
	"github.com/qalab/qametrics/internal/service/analysis"
	"github.com/qalab/qametrics/pkg/analyzer/repository"
	"github.com/qalab/qametrics/pkg/config"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"all"},
		Usage:     "Analyze a repository and print the full metrics report",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Skip reading git commit history",
			},
			&cli.BoolFlag{
				Name:  "fail-on-violation",
				Usage: "Return an error when any configured threshold is exceeded",
			},
		},
		Action: runAnalyzeCmd,
	}
}

// analyzeRepository runs a repository analysis with a progress bar when the
// output format allows one.
func analyzeRepository(c *cli.Context, svc *analysis.Service, paths []string, noHistory bool) (*repository.Report, error) {
	var tracker *progress.Tracker
	opts := analysis.RepositoryOptions{NoHistory: noHistory}
	if showProgress(c, svc.Config()) {
		opts.OnScanned = func(n int) {
			tracker = progress.NewTrackerTo(c.App.ErrWriter, "Analyzing files", n)
		}
		opts.OnProgress = func() { tracker.Tick() }
	}

	report, err := svc.AnalyzeRepository(c.Context, paths, opts)
	if err != nil {
		tracker.FinishError(err)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()
	return report, nil
}

func runAnalyzeCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	cfg := svc.Config()
	noHistory := c.Bool("no-history")

	paths, cleanup, err := resolvePaths(c, noHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := analyzeRepository(c, svc, paths, noHistory)
	if err != nil {
		return err
	}
	if report.Summary.Files == 0 {
		warn(c.App.ErrWriter, "No source files found")
		return nil
	}
	if len(report.Failed) > 0 {
		warn(c.App.ErrWriter, "%d files could not be read and were skipped", len(report.Failed))
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report); err != nil {
		return err
	}
	if c.Bool("fail-on-violation") && len(report.Violations) > 0 {
		return fmt.Errorf("%d threshold violations", len(report.Violations))
	}
	return nil
}

func classesCmd() *cli.Command {
	return &cli.Command{
		Name:      "classes",
		Aliases:   []string{"ck"},
		Usage:     "List classes with CK-style metrics (WMC, LCOM4, DIT, NOC)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sort",
				Value: "lcom",
				Usage: "Sort by: lcom, wmc, dit, name",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show top N classes (0 = all)",
			},
		},
		Action: runClassesCmd,
	}
}

func runClassesCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	cfg := svc.Config()
	sortBy := c.String("sort")
	topN := c.Int("top")

	paths, cleanup, err := resolvePaths(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := analyzeRepository(c, svc, paths, true)
	if err != nil {
		return err
	}
	if len(report.Classes) == 0 {
		warn(c.App.ErrWriter, "No classes found")
		return nil
	}

	switch sortBy {
	case "wmc":
		report.SortByWMC()
	case "dit":
		report.SortByDIT()
	case "name":
		report.SortByName()
	default:
		sortBy = "lcom"
		report.SortByLCOM()
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	classesToShow := report.Classes
	if topN > 0 && len(classesToShow) > topN {
		classesToShow = classesToShow[:topN]
	}

	rows := make([][]string, 0, len(classesToShow))
	for _, cls := range classesToShow {
		rows = append(rows, []string{
			cls.Name,
			cls.Path,
			thresholdCell(cls.WMC, cfg.Thresholds.WMC, formatter.Colored()),
			lcomCell(cls.LCOM, cfg.Thresholds, formatter.Colored()),
			strconv.Itoa(cls.DIT),
			strconv.Itoa(cls.NOC),
			strconv.Itoa(cls.NOM),
			strconv.Itoa(cls.NOF),
		})
	}

	s := report.Summary
	table := output.NewTable(
		fmt.Sprintf("Classes (top %d by %s)", len(classesToShow), sortBy),
		[]string{"Class", "Path", "WMC", "LCOM", "DIT", "NOC", "Methods", "Fields"},
		rows,
		[]string{
			fmt.Sprintf("Total Classes: %d", s.Classes),
			fmt.Sprintf("Low Cohesion (LCOM>1): %d", s.LowCohesionCount),
			fmt.Sprintf("Avg WMC: %.1f", s.WMC.Mean),
			fmt.Sprintf("Max WMC: %d", s.WMC.Max),
			fmt.Sprintf("Max DIT: %d", s.MaxDIT),
		},
		classesToShow,
	)
	return formatter.Output(table)
}

// thresholdCell colors value red above limit and yellow above half of it.
// A zero limit disables coloring.
func thresholdCell(value, limit int, colored bool) string {
	text := strconv.Itoa(value)
	if !colored || limit <= 0 {
		return text
	}
	switch {
	case value > limit:
		return output.SeverityColor("violation", text)
	case value > limit/2:
		return output.SeverityColor("warning", text)
	}
	return text
}

func lcomCell(value int, t config.ThresholdConfig, colored bool) string {
	text := strconv.Itoa(value)
	if !colored {
		return text
	}
	switch {
	case t.LCOM > 0 && value > t.LCOM:
		return output.SeverityColor("violation", text)
	case value > 1:
		return output.SeverityColor("warning", text)
	}
	return text
}
