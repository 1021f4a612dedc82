package client

import (
	"context"
	"net/http"

	"github.com/bchakour/tb/internal/models"
)

// GenerateReportRequest is the body for POST /reports/generate.
type GenerateReportRequest struct {
	ProjectID string            `json:"projectId"`
	Prompt    string            `json:"prompt"`
	Type      models.ReportType `json:"type"`
}

// GenerateReport asks the server to produce a markdown report. The content
// is generated remotely; the client treats it as opaque text.
func (c *Client) GenerateReport(ctx context.Context, req GenerateReportRequest) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, http.MethodPost, "/reports/generate", nil, req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListProjectReports returns all stored reports for a project.
func (c *Client) ListProjectReports(ctx context.Context, projectID string) ([]*models.Report, error) {
	var reports []*models.Report
	if err := c.do(ctx, http.MethodGet, "/reports/project/"+projectID, nil, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport fetches a single report by id.
func (c *Client) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, http.MethodGet, "/reports/"+id, nil, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteReport removes a stored report.
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/reports/"+id, nil, nil, nil)
}
