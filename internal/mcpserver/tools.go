package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qalab/qametrics/internal/output"
	"github.com/qalab/qametrics/internal/service/analysis"
	"github.com/qalab/qametrics/pkg/analyzer/repository"
)

// AnalyzeInput is the base input for repository tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// RepositoryInput adds repository report options.
type RepositoryInput struct {
	AnalyzeInput
	NoHistory bool `json:"no_history,omitempty" jsonschema:"Skip reading git commit history."`
}

// FileInput selects a single source file.
type FileInput struct {
	Path   string `json:"path" jsonschema:"Source file to analyze."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ClassesInput adds class listing options.
type ClassesInput struct {
	AnalyzeInput
	Sort string `json:"sort,omitempty" jsonschema:"Sort by metric: lcom, wmc, dit, or name. Default lcom."`
	Top  int    `json:"top,omitempty" jsonschema:"Show top N classes. Default 20."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.New(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeRepository(ctx context.Context, req *mcp.CallToolRequest, input RepositoryInput) (*mcp.CallToolResult, any, error) {
	report, err := s.svc.AnalyzeRepository(ctx, getPaths(input.AnalyzeInput), analysis.RepositoryOptions{
		NoHistory: input.NoHistory,
	})
	if err != nil {
		return toolError(err.Error())
	}
	if report.Summary.Files == 0 {
		return toolError("no source files found")
	}
	return toolResult(report, getFormat(input.Format))
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest, input FileInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	file, err := s.svc.AnalyzeFile(input.Path)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(file, getFormat(input.Format))
}

func (s *Server) handleListClasses(ctx context.Context, req *mcp.CallToolRequest, input ClassesInput) (*mcp.CallToolResult, any, error) {
	top := input.Top
	if top <= 0 {
		top = 20
	}

	report, err := s.svc.AnalyzeRepository(ctx, getPaths(input.AnalyzeInput), analysis.RepositoryOptions{NoHistory: true})
	if err != nil {
		return toolError(err.Error())
	}
	if len(report.Classes) == 0 {
		return toolError("no classes found")
	}

	sortClasses(report, input.Sort)
	classes := report.Classes
	if len(classes) > top {
		classes = classes[:top]
	}

	result := struct {
		Classes []repository.ClassMetrics `json:"classes" toon:"classes"`
		Total   int                       `json:"total" toon:"total"`
	}{
		Classes: classes,
		Total:   len(report.Classes),
	}
	return toolResult(result, getFormat(input.Format))
}

func sortClasses(report *repository.Report, by string) {
	switch strings.ToLower(by) {
	case "wmc":
		report.SortByWMC()
	case "dit":
		report.SortByDIT()
	case "name":
		report.SortByName()
	default:
		report.SortByLCOM()
	}
}
