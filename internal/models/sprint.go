package models

import (
	"errors"
	"time"
)

// SprintStatus represents a sprint's lifecycle stage. Transitions are
// monotonic: PLANNING -> ACTIVE -> COMPLETED, no back-transitions.
type SprintStatus string

const (
	SprintStatusPlanning  SprintStatus = "PLANNING"
	SprintStatusActive    SprintStatus = "ACTIVE"
	SprintStatusCompleted SprintStatus = "COMPLETED"
)

// Sprint is a time-boxed iteration of work within a project.
type Sprint struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Goal      string       `json:"goal,omitempty"`
	StartDate Date         `json:"startDate"`
	EndDate   Date         `json:"endDate"`
	Status    SprintStatus `json:"status"`
	ProjectID string       `json:"projectId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Validation errors returned by Sprint.Validate.
var (
	ErrSprintNameRequired = errors.New("sprint name is required")
	ErrSprintDatesMissing = errors.New("sprint start and end dates are required")
	ErrSprintDateOrder    = errors.New("sprint end date must be after start date")
)

// Validate checks the fields a sprint needs before it can be created.
// It runs client-side so an invalid sprint never reaches the network.
func (s *Sprint) Validate() error {
	if s.Name == "" {
		return ErrSprintNameRequired
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return ErrSprintDatesMissing
	}
	if !s.EndDate.After(s.StartDate) {
		return ErrSprintDateOrder
	}
	return nil
}
