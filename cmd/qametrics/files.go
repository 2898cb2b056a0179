package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/internal/locator"
	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/internal/progress"
	"github.com/qalab/qametrics/internal/service/analysis"
	scannerSvc "github.com/qalab/qametrics/internal/service/scanner"
	"github.com/qalab/qametrics/pkg/models"
	"github.com/qalab/qametrics/pkg/parser"
)

// parsePaths scans paths and parses every file found. Files that cannot be
// read are logged by the service and reported here.
func parsePaths(c *cli.Context, svc *analysis.Service, paths []string, label string) ([]*models.SourceFile, error) {
	cfg := svc.Config()
	scanResult, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).ScanPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(scanResult.Files) == 0 {
		return nil, nil
	}

	var tracker *progress.Tracker
	if showProgress(c, cfg) {
		tracker = progress.NewTrackerTo(c.App.ErrWriter, label, len(scanResult.Files))
	}
	files, errs := svc.ParseFiles(c.Context, scanResult.Files, analysis.ParseOptions{OnProgress: tracker.Func()})
	if err := c.Context.Err(); err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	if errs.HasErrors() {
		warn(c.App.ErrWriter, "%d files could not be read and were skipped", errs.Len())
	}
	return files, nil
}

func complexityCmd() *cli.Command {
	return &cli.Command{
		Name:      "complexity",
		Aliases:   []string{"cx"},
		Usage:     "Report cyclomatic complexity per file",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 0,
				Usage: "Show only the N most complex files (0 = all)",
			},
		},
		Action: runComplexityCmd,
	}
}

// fileComplexity is one row of the complexity report.
type fileComplexity struct {
	Path          string `json:"path"`
	Classes       int    `json:"classes"`
	Methods       int    `json:"methods"`
	Complexity    int    `json:"complexity"`
	MaxMethod     string `json:"max_method,omitempty"`
	MaxComplexity int    `json:"max_method_complexity"`
}

func complexityRows(files []*models.SourceFile) []fileComplexity {
	result := make([]fileComplexity, 0, len(files))
	for _, f := range files {
		row := fileComplexity{Path: f.Path, Classes: len(f.Classes), Complexity: f.Complexity}
		for _, cls := range f.Classes {
			row.Methods += len(cls.Methods)
			for _, m := range cls.Methods {
				if row.MaxMethod == "" || m.Complexity > row.MaxComplexity {
					row.MaxMethod = cls.Name + "." + m.Name
					row.MaxComplexity = m.Complexity
				}
			}
		}
		result = append(result, row)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Complexity != result[j].Complexity {
			return result[i].Complexity > result[j].Complexity
		}
		return result[i].Path < result[j].Path
	})
	return result
}

func runComplexityCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	cfg := svc.Config()

	paths, cleanup, err := resolvePaths(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := parsePaths(c, svc, paths, "Analyzing complexity")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		warn(c.App.ErrWriter, "No source files found")
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	all := complexityRows(files)
	total := 0
	for _, r := range all {
		total += r.Complexity
	}
	shown := all
	if top := c.Int("top"); top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	rows := make([][]string, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, []string{
			r.Path,
			strconv.Itoa(r.Classes),
			strconv.Itoa(r.Methods),
			thresholdCell(r.Complexity, cfg.Thresholds.FileComplexity, formatter.Colored()),
			r.MaxMethod,
			strconv.Itoa(r.MaxComplexity),
		})
	}

	table := output.NewTable(
		"Cyclomatic Complexity",
		[]string{"File", "Classes", "Methods", "Complexity", "Most Complex Method", "Method Complexity"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", len(all)),
			fmt.Sprintf("Total: %d", total),
			fmt.Sprintf("Avg: %.1f", float64(total)/float64(len(all))),
		},
		shown,
	)
	return formatter.Output(table)
}

func linesCmd() *cli.Command {
	return &cli.Command{
		Name:      "lines",
		Aliases:   []string{"loc"},
		Usage:     "Count code, comment and blank lines per file",
		ArgsUsage: "[path...]",
		Action:    runLinesCmd,
	}
}

// fileLines is one row of the line count report.
type fileLines struct {
	Path  string            `json:"path"`
	Lines models.LineCounts `json:"lines"`
}

// lineReport is the structured form of the lines command.
type lineReport struct {
	Files          []fileLines       `json:"files"`
	Total          models.LineCounts `json:"total"`
	CommentDensity float64           `json:"comment_density"`
}

func newLineReport(files []*models.SourceFile) lineReport {
	report := lineReport{Files: make([]fileLines, 0, len(files))}
	for _, f := range files {
		report.Files = append(report.Files, fileLines{Path: f.Path, Lines: f.Lines})
		report.Total.Add(f.Lines)
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Path < report.Files[j].Path
	})
	report.CommentDensity = report.Total.CommentDensity()
	return report
}

func runLinesCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	paths, cleanup, err := resolvePaths(c, true)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := parsePaths(c, svc, paths, "Counting lines")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		warn(c.App.ErrWriter, "No source files found")
		return nil
	}

	formatter, err := newFormatter(c, svc.Config())
	if err != nil {
		return err
	}
	defer formatter.Close()

	report := newLineReport(files)
	rows := make([][]string, 0, len(report.Files))
	for _, f := range report.Files {
		rows = append(rows, []string{
			f.Path,
			strconv.Itoa(f.Lines.Code),
			strconv.Itoa(f.Lines.Comment),
			strconv.Itoa(f.Lines.Blank),
			strconv.Itoa(f.Lines.Total),
		})
	}
	t := report.Total
	table := output.NewTable(
		"Line Counts",
		[]string{"File", "Code", "Comment", "Blank", "Total"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", len(report.Files)),
			fmt.Sprintf("Code: %d", t.Code),
			fmt.Sprintf("Comment: %d", t.Comment),
			fmt.Sprintf("Blank: %d", t.Blank),
			fmt.Sprintf("CD: %.1f%%", 100*report.CommentDensity),
		},
		report,
	)
	return formatter.Output(table)
}

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Print the block tree of a source file",
		ArgsUsage: "<file|glob|class>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "scores",
				Usage: "Annotate each block with its complexity score",
			},
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Directory searched when the target is a glob, file name or class name",
			},
		},
		Action: runTreeCmd,
	}
}

func runTreeCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("tree takes exactly one target, got %d arguments", c.Args().Len())
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	path, err := locateFile(c, svc, c.Args().First())
	if err != nil {
		return err
	}
	p := svc.Parser()
	if !p.Supports(path) {
		return fmt.Errorf("%s: %w", filepath.Base(path), parser.ErrUnsupportedFile)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	tree, _ := p.ParseTree(content)
	var calc *parser.Calculator
	if c.Bool("scores") {
		calc = p.Calculator()
	}

	w := c.App.Writer
	if out := c.String("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return parser.Fprint(w, tree, calc)
}

// locateFile resolves the tree target to one file. Class names are looked up
// by parsing the --root directory, which only happens when no file matches.
func locateFile(c *cli.Context, svc *analysis.Service, focus string) (string, error) {
	root := c.String("root")
	index := func() ([]locator.Class, error) {
		files, err := parsePaths(c, svc, []string{root}, "Indexing classes")
		if err != nil {
			return nil, err
		}
		return locator.ClassesOf(files), nil
	}

	result, err := locator.Locate(focus, index, locator.WithBaseDir(root))
	if errors.Is(err, locator.ErrAmbiguousMatch) {
		warn(c.App.ErrWriter, "%s matches %d targets:", focus, len(result.Candidates))
		for _, cand := range result.Candidates {
			if cand.Class != "" {
				fmt.Fprintf(c.App.ErrWriter, "  %s (%s)\n", cand.Class, cand.Path)
			} else {
				fmt.Fprintf(c.App.ErrWriter, "  %s\n", cand.Path)
			}
		}
		return "", fmt.Errorf("%s: %w", focus, err)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", focus, err)
	}
	return result.Path, nil
}
