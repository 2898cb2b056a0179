package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/qalab/qametrics/pkg/models"
	"github.com/qalab/qametrics/pkg/parser"
)

// SourceCache memoizes per-file analysis. Entries are keyed by path and
// complexity policy and validated against the BLAKE3 hash of the file's
// contents, so an edited file is always re-parsed.
type SourceCache struct {
	cache  *Cache
	parser *parser.Parser
}

// NewSourceCache wraps c for parsed source files. A nil or disabled cache
// parses every time.
func NewSourceCache(c *Cache, p *parser.Parser) *SourceCache {
	return &SourceCache{cache: c, parser: p}
}

func (s *SourceCache) key(path string) string {
	return fmt.Sprintf("source:%s:%s", s.parser.Calculator().Policy(), path)
}

// ParseFile returns the analysis for path, from the cache when the content
// hash matches.
func (s *SourceCache) ParseFile(path string) (*models.SourceFile, error) {
	if !s.parser.Supports(path) {
		return nil, fmt.Errorf("%s: %w", path, parser.ErrUnsupportedFile)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.Parse(content, path), nil
}

// Parse analyzes already-read content, consulting the cache first.
func (s *SourceCache) Parse(content []byte, path string) *models.SourceFile {
	if s.cache == nil || !s.cache.Enabled() {
		return s.parser.Parse(content, path)
	}

	hash := HashBytes(content)
	key := s.key(path)
	if data, ok := s.cache.GetWithHash(key, hash); ok {
		var file models.SourceFile
		if err := json.Unmarshal(data, &file); err == nil {
			return &file
		}
		_ = s.cache.Invalidate(key)
	}

	file := s.parser.Parse(content, path)
	if data, err := json.Marshal(file); err == nil {
		// A failed write only costs a re-parse next time.
		_ = s.cache.SetWithHash(key, hash, data)
	}
	return file
}
