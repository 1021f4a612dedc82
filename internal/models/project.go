package models

import (
	"errors"
	"regexp"
	"time"
)

// Project groups tasks, sprints, and members under a shared board.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Key         string    `json:"key"` // 2-5 uppercase letters, task display prefix
	Description string    `json:"description,omitempty"`
	Lead        *User     `json:"lead,omitempty"`
	Members     []*User   `json:"members,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

var projectKeyRe = regexp.MustCompile(`^[A-Z]{2,5}$`)

// Validation errors returned by Project.Validate.
var (
	ErrProjectNameRequired = errors.New("project name is required")
	ErrProjectKeyInvalid   = errors.New("project key must be 2-5 uppercase letters")
)

// Validate checks the fields a project needs before creation.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrProjectNameRequired
	}
	if !projectKeyRe.MatchString(p.Key) {
		return ErrProjectKeyInvalid
	}
	return nil
}
