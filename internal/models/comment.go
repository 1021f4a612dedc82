package models

import "time"

// Comment is a note attached to a task. Comments are owned by their task and
// may only be deleted by their author.
type Comment struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	TaskID      string    `json:"taskId"`
	AuthorID    string    `json:"authorId,omitempty"`
	AuthorName  string    `json:"authorName,omitempty"`
	AuthorEmail string    `json:"authorEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
