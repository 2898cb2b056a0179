package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/models"
	"github.com/qalab/qametrics/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a changed file is analyzed",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	cfg := svc.Config()

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := watch.NewWatcher(absPath, cfg, c.Duration("debounce"),
		watch.WithOutput(c.App.Writer),
		watch.WithLogger(newLogger(c, cfg)),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(changedPath string) {
		file, err := svc.AnalyzeFile(changedPath)
		if err != nil {
			color.New(color.FgRed).Fprintf(c.App.Writer, "Analysis error: %v\n", err)
			return
		}
		printFileSummary(c.App.Writer, file, cfg.Thresholds)
	})

	// Handle Ctrl+C
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = watcher.Start(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(c.App.Writer, "\nStopping watch...")
		return nil
	}
	return err
}

// printFileSummary writes the per-file result shown after each change.
func printFileSummary(w io.Writer, file *models.SourceFile, t config.ThresholdConfig) {
	fmt.Fprintf(w, "Complexity: %d, %d classes, %d lines (%d code, %d comment)\n",
		file.Complexity, len(file.Classes), file.Lines.Total, file.Lines.Code, file.Lines.Comment)

	red := color.New(color.FgRed)
	if t.FileComplexity > 0 && file.Complexity > t.FileComplexity {
		red.Fprintf(w, "  file complexity %d exceeds %d\n", file.Complexity, t.FileComplexity)
	}
	for _, cls := range file.Classes {
		fmt.Fprintf(w, "  %s: WMC %d, %d methods, %d fields\n",
			cls.QualifiedName(), cls.WMC, len(cls.Methods), len(cls.Fields))
		if t.WMC > 0 && cls.WMC > t.WMC {
			red.Fprintf(w, "    WMC %d exceeds %d\n", cls.WMC, t.WMC)
		}
	}
}
