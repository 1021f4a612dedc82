package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bchakour/tb/internal/models"
)

// GeneratedReport holds the LLM-generated report fields.
type GeneratedReport struct {
	Title   string `json:"title"`
	Content string `json:"content"` // markdown
}

// Client wraps the Anthropic API for report generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// ReportInput is the project state a report is generated from.
type ReportInput struct {
	Project *models.Project
	Sprints []*models.Sprint
	Tasks   []*models.Task
	Type    models.ReportType
	Prompt  string // extra instructions for CUSTOM reports
}

// buildReportPrompt constructs the system and user prompts for report generation.
func buildReportPrompt(in ReportInput) (system string, user string) {
	system = `You write status reports for a project tracking tool. Given a project digest, return ONLY a JSON object with these fields:
- "title": a short report title naming the project and reporting period
- "content": the full report as markdown

Rules:
- SPRINT_SUMMARY reports cover each sprint: its goal, what was completed, what carried over
- PROGRESS reports cover the whole board: completion ratio, work in review, overdue tasks, blockers
- CUSTOM reports follow the extra instructions given in the digest
- Ground every statement in the digest; never invent tasks, people, or dates
- Keep the content under 600 words
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Report type: ")
	sb.WriteString(string(in.Type))
	sb.WriteString("\n")
	if in.Prompt != "" {
		sb.WriteString("Extra instructions: ")
		sb.WriteString(in.Prompt)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(buildDigest(in))
	user = sb.String()
	return
}

// buildDigest flattens the project state into plain text the model can cite.
func buildDigest(in ReportInput) string {
	var sb strings.Builder
	if in.Project != nil {
		fmt.Fprintf(&sb, "Project: %s (%s)\n", in.Project.Name, in.Project.Key)
		if in.Project.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", in.Project.Description)
		}
	}

	if len(in.Sprints) > 0 {
		sb.WriteString("\nSprints:\n")
		for _, sp := range in.Sprints {
			fmt.Fprintf(&sb, "- %s [%s] %s to %s", sp.Name, sp.Status, sp.StartDate, sp.EndDate)
			if sp.Goal != "" {
				fmt.Fprintf(&sb, " goal: %s", sp.Goal)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nTasks:\n")
	for _, t := range in.Tasks {
		fmt.Fprintf(&sb, "- %s %q [%s/%s/%s]", t.TaskKey, t.Title, t.Type, t.Status, t.Priority)
		if t.Assignee != nil {
			fmt.Fprintf(&sb, " assignee: %s", t.Assignee.Name)
		}
		if t.Sprint != nil {
			fmt.Fprintf(&sb, " sprint: %s", t.Sprint.Name)
		}
		if t.DueDate != nil && !t.DueDate.IsZero() {
			fmt.Fprintf(&sb, " due: %s", t.DueDate)
		}
		sb.WriteString("\n")
	}
	if len(in.Tasks) == 0 {
		sb.WriteString("(none)\n")
	}
	return sb.String()
}

// GenerateReport sends the project digest to the LLM and returns a titled
// markdown report.
func (c *Client) GenerateReport(ctx context.Context, in ReportInput) (*GeneratedReport, error) {
	systemPrompt, userPrompt := buildReportPrompt(in)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var report GeneratedReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return &report, nil
}
