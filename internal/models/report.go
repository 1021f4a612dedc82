package models

import "time"

// ReportType selects the flavor of an AI-generated report.
type ReportType string

const (
	ReportTypeSprintSummary ReportType = "SPRINT_SUMMARY"
	ReportTypeProgress      ReportType = "PROGRESS"
	ReportTypeCustom        ReportType = "CUSTOM"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeSprintSummary, ReportTypeProgress, ReportTypeCustom:
		return true
	}
	return false
}

// Report is a generated markdown document about a project's state.
type Report struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"` // markdown
	Prompt      string     `json:"prompt,omitempty"`
	Type        ReportType `json:"type"`
	ProjectID   string     `json:"projectId"`
	ProjectName string     `json:"projectName,omitempty"`
	AuthorName  string     `json:"authorName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
