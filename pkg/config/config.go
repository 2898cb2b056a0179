package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/qalab/qametrics/pkg/parser"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "QAMETRICS_CONFIG"

// Config holds all configuration options for qametrics.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Thresholds used to flag classes and files in reports
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// File inclusion globs; empty means everything not excluded
	Include IncludeConfig `koanf:"include" toml:"include"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls how files are parsed.
type AnalysisConfig struct {
	Extensions       []string `koanf:"extensions" toml:"extensions"`
	ComplexityPolicy string   `koanf:"complexity_policy" toml:"complexity_policy"`
	Workers          int      `koanf:"workers" toml:"workers"`             // 0 means 2x NumCPU
	IncludeTests     bool     `koanf:"include_tests" toml:"include_tests"` // analyze files under test dirs
	MaxFileSize      int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 disables
}

// ThresholdConfig defines metric thresholds.
type ThresholdConfig struct {
	WMC               int     `koanf:"wmc" toml:"wmc"`
	LCOM              int     `koanf:"lcom" toml:"lcom"`
	FileComplexity    int     `koanf:"file_complexity" toml:"file_complexity"`
	CommentDensityMin float64 `koanf:"comment_density_min" toml:"comment_density_min"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// IncludeConfig restricts analysis to paths matching at least one glob.
type IncludeConfig struct {
	Patterns []string `koanf:"patterns" toml:"patterns"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `koanf:"enabled" toml:"enabled"`
	Dir           string `koanf:"dir" toml:"dir"`
	TTL           int    `koanf:"ttl" toml:"ttl"` // TTL in hours
	MemoryEntries int    `koanf:"memory_entries" toml:"memory_entries"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, yaml, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

var validFormats = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"yaml":     true,
	"toon":     true,
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Extensions:       append([]string(nil), parser.DefaultExtensions...),
			ComplexityPolicy: string(parser.PolicyEveryMatch),
			Workers:          0,
			IncludeTests:     true,
			MaxFileSize:      1 << 20,
		},
		Thresholds: ThresholdConfig{
			WMC:               50,
			LCOM:              2,
			FileComplexity:    100,
			CommentDensityMin: 0.1,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"package-info.java",
				"module-info.java",
			},
			Dirs: []string{
				".git",
				".qametrics",
				".idea",
				"target",
				"build",
				"out",
				"node_modules",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           ".qametrics/cache",
			TTL:           24,
			MemoryEntries: 4096,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var p koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		p = toml.Parser()
	case ".yaml", ".yml":
		p = yaml.Parser()
	case ".json":
		p = json.Parser()
	default:
		p = toml.Parser()
	}

	if err := k.Load(file.Provider(path), p); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are the file names searched by LoadOrDefault, in order.
var configNames = []string{
	"qametrics.toml",
	"qametrics.yaml",
	"qametrics.yml",
	"qametrics.json",
	".qametrics.toml",
	".qametrics.yaml",
	".qametrics.yml",
	".qametrics.json",
}

// Find returns the first config file found in the standard locations under
// root, or "" when there is none. QAMETRICS_CONFIG takes precedence.
func Find(root string) string {
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	for _, dir := range []string{root, filepath.Join(root, ".qametrics")} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := Find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := parser.ParsePolicy(c.Analysis.ComplexityPolicy); err != nil {
		errs = append(errs, fmt.Errorf("analysis.complexity_policy: %w", err))
	}
	if len(c.Analysis.Extensions) == 0 {
		errs = append(errs, errors.New("analysis.extensions: at least one extension is required"))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers: must not be negative, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size: must not be negative, got %d", c.Analysis.MaxFileSize))
	}
	if c.Thresholds.WMC < 0 || c.Thresholds.LCOM < 0 || c.Thresholds.FileComplexity < 0 {
		errs = append(errs, errors.New("thresholds: values must not be negative"))
	}
	if c.Thresholds.CommentDensityMin < 0 || c.Thresholds.CommentDensityMin > 1 {
		errs = append(errs, fmt.Errorf("thresholds.comment_density_min: must be within [0, 1], got %g", c.Thresholds.CommentDensityMin))
	}
	for _, pattern := range append(append([]string(nil), c.Exclude.Patterns...), c.Include.Patterns...) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative, got %d", c.Cache.TTL))
	}
	if c.Cache.MemoryEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.memory_entries: must not be negative, got %d", c.Cache.MemoryEntries))
	}
	if !validFormats[c.Output.Format] {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

// Policy returns the configured complexity policy, falling back to the
// default for invalid values. Call Validate to surface those.
func (c *Config) Policy() parser.Policy {
	p, err := parser.ParsePolicy(c.Analysis.ComplexityPolicy)
	if err != nil {
		return parser.PolicyEveryMatch
	}
	return p
}

// ShouldExclude checks if a path should be excluded from analysis. path is
// relative to the analyzed root and uses forward or OS separators.
func (c *Config) ShouldExclude(path string) bool {
	slashed := filepath.ToSlash(path)

	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(slashed, "/"+dir+"/") || strings.HasPrefix(slashed, dir+"/") {
			return true
		}
	}

	if !c.Analysis.IncludeTests && isTestPath(slashed) {
		return true
	}

	// Patterns without a separator match the base name, as with filepath.Match.
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		target := slashed
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if matched, _ := doublestar.Match(pattern, target); matched {
			return true
		}
	}

	return false
}

// ShouldInclude reports whether path matches the include globs. With no
// include globs every path is included.
func (c *Config) ShouldInclude(path string) bool {
	if len(c.Include.Patterns) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	for _, pattern := range c.Include.Patterns {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}

func isTestPath(slashed string) bool {
	if strings.HasPrefix(slashed, "src/test/") || strings.Contains(slashed, "/src/test/") {
		return true
	}
	name := strings.TrimSuffix(filepath.Base(slashed), filepath.Ext(slashed))
	return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
}
