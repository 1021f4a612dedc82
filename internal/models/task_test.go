package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskClone_DeepCopies(t *testing.T) {
	due := NewDate(2026, time.March, 10)
	task := &Task{
		ID:       "t1",
		Title:    "original",
		Status:   TaskStatusTodo,
		DueDate:  &due,
		Assignee: &User{ID: "u1", Name: "Dana"},
		Sprint:   &Sprint{ID: "s1", Name: "Sprint 1"},
	}

	clone := task.Clone()
	require.NotSame(t, task, clone)

	clone.Title = "changed"
	clone.Assignee.Name = "someone else"
	clone.Sprint.Name = "Sprint 2"
	*clone.DueDate = NewDate(2027, time.January, 1)

	assert.Equal(t, "original", task.Title)
	assert.Equal(t, "Dana", task.Assignee.Name)
	assert.Equal(t, "Sprint 1", task.Sprint.Name)
	assert.Equal(t, "2026-03-10", task.DueDate.String())
}

func TestTaskClone_Nil(t *testing.T) {
	var task *Task
	assert.Nil(t, task.Clone())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TaskStatusInReview.Valid())
	assert.False(t, TaskStatus("ARCHIVED").Valid())

	assert.True(t, TaskPriorityLowest.Valid())
	assert.False(t, TaskPriority("URGENT").Valid())

	assert.True(t, TaskTypeEpic.Valid())
	assert.False(t, TaskType("CHORE").Valid())

	assert.True(t, UserRoleScrumMaster.Valid())
	assert.False(t, UserRole("ADMIN").Valid())

	assert.True(t, ReportTypeCustom.Valid())
	assert.False(t, ReportType("WEEKLY").Valid())
}

func TestTaskStatusesOrder(t *testing.T) {
	assert.Equal(t, []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone}, TaskStatuses)
}
