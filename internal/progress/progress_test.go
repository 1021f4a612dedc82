package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bchakour/tb/internal/models"
)

// fixedNow pins the clock to 2026-03-10 12:00 UTC.
var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func testScorer() *Scorer {
	return &Scorer{now: func() time.Time { return fixedNow }}
}

func activeSprint() *models.Sprint {
	return &models.Sprint{
		ID:        "s1",
		Name:      "Sprint 1",
		Status:    models.SprintStatusActive,
		StartDate: models.NewDate(2026, time.March, 1),
		EndDate:   models.NewDate(2026, time.March, 14),
	}
}

func tasksWithStatuses(statuses ...models.TaskStatus) []*models.Task {
	out := make([]*models.Task, len(statuses))
	for i, st := range statuses {
		out[i] = &models.Task{ID: string(rune('a' + i)), Status: st}
	}
	return out
}

func TestScore_EmptySprintIsNeutral(t *testing.T) {
	sc := testScorer().Score(activeSprint(), nil)
	assert.Equal(t, 50, sc.Total)
}

func TestScore_AllDoneIsFull(t *testing.T) {
	tasks := tasksWithStatuses(models.TaskStatusDone, models.TaskStatusDone)
	sc := testScorer().Score(activeSprint(), tasks)

	assert.Equal(t, 50, sc.Completion)
	assert.Equal(t, 20, sc.Timeliness)
	assert.Equal(t, 15, sc.Staleness)
	assert.Equal(t, 2, sc.Done)
	assert.Equal(t, 85, sc.Total)
}

func TestScore_CountsBuckets(t *testing.T) {
	tasks := tasksWithStatuses(
		models.TaskStatusTodo,
		models.TaskStatusInProgress,
		models.TaskStatusInReview,
		models.TaskStatusDone,
	)
	sc := testScorer().Score(activeSprint(), tasks)

	assert.Equal(t, 1, sc.Todo)
	assert.Equal(t, 1, sc.InProgress)
	assert.Equal(t, 1, sc.InReview)
	assert.Equal(t, 1, sc.Done)

	assert.Equal(t, 12, sc.Completion, "1 of 4 done")
	assert.Equal(t, 7, sc.ReviewPipeline, "2 of 4 in flight")
}

func TestScore_OverdueTasksDrainTimeliness(t *testing.T) {
	// Due two days before now and not done: past the 24h grace window.
	due := models.NewDate(2026, time.March, 8)
	tasks := []*models.Task{
		{ID: "t1", Status: models.TaskStatusInProgress, DueDate: &due},
		{ID: "t2", Status: models.TaskStatusTodo},
	}
	sc := testScorer().Score(activeSprint(), tasks)

	assert.Equal(t, 1, sc.Overdue)
	assert.Equal(t, 10, sc.Timeliness)
}

func TestScore_DueTodayStillInGrace(t *testing.T) {
	due := models.NewDate(2026, time.March, 10)
	tasks := []*models.Task{{ID: "t1", Status: models.TaskStatusTodo, DueDate: &due}}
	sc := testScorer().Score(activeSprint(), tasks)

	assert.Zero(t, sc.Overdue, "24h grace after the due date")
}

func TestScore_DoneTaskNeverOverdue(t *testing.T) {
	due := models.NewDate(2026, time.January, 1)
	tasks := []*models.Task{{ID: "t1", Status: models.TaskStatusDone, DueDate: &due}}
	sc := testScorer().Score(activeSprint(), tasks)

	assert.Zero(t, sc.Overdue)
}

func TestScoreEndDate(t *testing.T) {
	open := tasksWithStatuses(models.TaskStatusTodo)

	t.Run("before end date keeps full points", func(t *testing.T) {
		sc := testScorer().Score(activeSprint(), open)
		assert.Equal(t, 15, sc.Staleness)
	})

	t.Run("a little past the end decays", func(t *testing.T) {
		sp := activeSprint()
		sp.EndDate = models.NewDate(2026, time.March, 9)
		sc := testScorer().Score(sp, open)
		assert.Equal(t, 9, sc.Staleness)
	})

	t.Run("a week past decays further", func(t *testing.T) {
		sp := activeSprint()
		sp.EndDate = models.NewDate(2026, time.March, 4)
		sc := testScorer().Score(sp, open)
		assert.Equal(t, 4, sc.Staleness)
	})

	t.Run("long past scores zero", func(t *testing.T) {
		sp := activeSprint()
		sp.EndDate = models.NewDate(2026, time.February, 1)
		sc := testScorer().Score(sp, open)
		assert.Zero(t, sc.Staleness)
	})

	t.Run("all done ignores the end date", func(t *testing.T) {
		sp := activeSprint()
		sp.EndDate = models.NewDate(2026, time.February, 1)
		sc := testScorer().Score(sp, tasksWithStatuses(models.TaskStatusDone))
		assert.Equal(t, 15, sc.Staleness)
	})
}
