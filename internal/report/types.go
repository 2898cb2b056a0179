package report

import (
	"time"

	"github.com/qalab/qametrics/pkg/analyzer/repository"
)

// Metadata contains report generation metadata.
type Metadata struct {
	Repository  string    `json:"repository"`
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	Paths       []string  `json:"paths"`
}

// Section is a ranked list of classes shown as one table in the report.
type Section struct {
	Title   string
	Metric  string
	Classes []repository.ClassMetrics
}

// RenderData contains all data needed to render the report.
type RenderData struct {
	Metadata   Metadata
	Report     *repository.Report
	Health     string
	Sections   []Section
	Violations []repository.Violation
}
