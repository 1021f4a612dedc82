package models

import "time"

// TaskStatus is the board column a task sits in.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusInReview   TaskStatus = "IN_REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskStatuses lists all statuses in board-column order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone}

// Valid reports whether s is one of the four board statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	TaskPriorityHighest TaskPriority = "HIGHEST"
	TaskPriorityHigh    TaskPriority = "HIGH"
	TaskPriorityMedium  TaskPriority = "MEDIUM"
	TaskPriorityLow     TaskPriority = "LOW"
	TaskPriorityLowest  TaskPriority = "LOWEST"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHighest, TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow, TaskPriorityLowest:
		return true
	}
	return false
}

// TaskType represents the kind of work a task tracks.
type TaskType string

const (
	TaskTypeTask  TaskType = "TASK"
	TaskTypeBug   TaskType = "BUG"
	TaskTypeStory TaskType = "STORY"
	TaskTypeEpic  TaskType = "EPIC"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeTask, TaskTypeBug, TaskTypeStory, TaskTypeEpic:
		return true
	}
	return false
}

// Task is a unit of work on a project board. The API embeds full User and
// Sprint objects on the wire, not bare id references, and full-object PUTs
// are expected to carry them back unchanged.
type Task struct {
	ID          string       `json:"id"`
	TaskKey     string       `json:"taskKey,omitempty"` // display key, e.g. "PROJ-42"
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        TaskType     `json:"type"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     *Date        `json:"dueDate,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Reporter    *User        `json:"reporter,omitempty"`
	Sprint      *Sprint      `json:"sprint,omitempty"`
	ProjectID   string       `json:"projectId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy of the task. Embedded objects are copied so a
// clone can be mutated without aliasing the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Assignee != nil {
		u := *t.Assignee
		c.Assignee = &u
	}
	if t.Reporter != nil {
		u := *t.Reporter
		c.Reporter = &u
	}
	if t.Sprint != nil {
		s := *t.Sprint
		c.Sprint = &s
	}
	return &c
}
