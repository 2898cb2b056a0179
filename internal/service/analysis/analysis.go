// Package analysis orchestrates a full run: scanning paths, parsing files in
// parallel through the cache, linking the repository and reading its history.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/qalab/qametrics/internal/cache"
	"github.com/qalab/qametrics/internal/fileproc"
	"github.com/qalab/qametrics/internal/logging"
	"github.com/qalab/qametrics/internal/service/scanner"
	"github.com/qalab/qametrics/internal/vcs"
	"github.com/qalab/qametrics/pkg/analyzer/repository"
	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/models"
	"github.com/qalab/qametrics/pkg/parser"
)

// Service orchestrates code analysis operations.
type Service struct {
	config *config.Config
	opener vcs.Opener
	cache  *cache.Cache
	logger *log.Logger
	parser *parser.Parser
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.parser = parser.New(
		parser.WithPolicy(s.config.Policy()),
		parser.WithExtensions(s.config.Analysis.Extensions...),
	)
	return s
}

// NewCache builds the cache described by cfg, or nil when caching is off.
func NewCache(cfg *config.Config) (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true, cache.WithMemoryEntries(cfg.Cache.MemoryEntries))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Dir, err)
	}
	return c, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Parser returns the parser configured from the service configuration.
func (s *Service) Parser() *parser.Parser {
	return s.parser
}

// parseFunc returns the per-file function, consulting the cache when one is
// configured.
func (s *Service) parseFunc() fileproc.ParseFunc {
	if s.cache == nil {
		return s.parser.ParseFile
	}
	return cache.NewSourceCache(s.cache, s.parser).ParseFile
}

// AnalyzeFile parses a single file.
func (s *Service) AnalyzeFile(path string) (*models.SourceFile, error) {
	return s.parseFunc()(path)
}

// ParseOptions configures ParseFiles.
type ParseOptions struct {
	Workers    int
	OnProgress func()
}

// ParseFiles parses files in parallel. Failures are logged and returned
// together; the successfully parsed files are always returned.
func (s *Service) ParseFiles(ctx context.Context, files []string, opts ParseOptions) ([]*models.SourceFile, *fileproc.ProcessingErrors) {
	workers := opts.Workers
	if workers <= 0 {
		workers = s.config.Analysis.Workers
	}
	return fileproc.ParseFilesWith(ctx, s.parseFunc(), files, workers, opts.OnProgress, func(path string, err error) {
		s.logger.WithFields(log.Fields{"path": path, "error": err}).Warn("skipping file")
	})
}

// RepositoryOptions configures repository analysis.
type RepositoryOptions struct {
	Workers    int
	NoHistory  bool
	OnProgress func()
	// OnScanned is called with the number of files found, before parsing.
	OnScanned func(n int)
}

// AnalyzeRepository scans paths, parses every source file and builds the
// repository report. Files that fail to parse are listed in the report.
func (s *Service) AnalyzeRepository(ctx context.Context, paths []string, opts RepositoryOptions) (*repository.Report, error) {
	scan := scanner.New(scanner.WithConfig(s.config), scanner.WithOpener(s.opener))
	result, err := scan.ScanPathsForGit(paths, false)
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		s.logger.WithField("count", result.Skipped).Info("skipped files above max_file_size")
	}
	s.logger.WithField("files", len(result.Files)).Debug("scan complete")
	if opts.OnScanned != nil {
		opts.OnScanned(len(result.Files))
	}

	files, errs := s.ParseFiles(ctx, result.Files, ParseOptions{Workers: opts.Workers, OnProgress: opts.OnProgress})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := displayRoot(paths)
	report, err := repository.Build(ctx, files,
		repository.WithRoot(root),
		repository.WithThresholds(s.config.Thresholds),
	)
	if err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		for _, e := range errs.Errors {
			report.Failed = append(report.Failed, e.Path)
		}
	}

	if !opts.NoHistory {
		report.History = s.history(ctx, result.RepoRoot)
	}
	return report, nil
}

func (s *Service) history(ctx context.Context, repoRoot string) *vcs.History {
	if repoRoot == "" {
		return nil
	}
	h, err := vcs.ReadHistory(ctx, s.opener, repoRoot)
	if err != nil {
		if errors.Is(err, vcs.ErrNotRepository) {
			s.logger.Debug("no git history")
		} else {
			s.logger.WithError(err).Warn("reading git history")
		}
		return nil
	}
	return &h
}

func displayRoot(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	if len(paths) == 1 {
		return filepath.Clean(paths[0])
	}
	return ""
}
