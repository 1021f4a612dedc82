// Package progress computes a 0-100 progress score for a sprint from the
// tasks attached to it.
package progress

import (
	"time"

	"github.com/bchakour/tb/internal/models"
)

// SprintScore represents the computed progress of a sprint.
type SprintScore struct {
	Total          int
	Completion     int // 0-50
	ReviewPipeline int // 0-15
	Timeliness     int // 0-20
	Staleness      int // 0-15

	Done       int
	InReview   int
	InProgress int
	Todo       int
	Overdue    int
}

// Scorer computes progress scores for sprints.
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a new sprint Scorer.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Score computes a progress score (0-100) for a sprint and its tasks.
func (s *Scorer) Score(sprint *models.Sprint, tasks []*models.Task) *SprintScore {
	sc := &SprintScore{}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusDone:
			sc.Done++
		case models.TaskStatusInReview:
			sc.InReview++
		case models.TaskStatusInProgress:
			sc.InProgress++
		default:
			sc.Todo++
		}
		if t.DueDate != nil && t.Status != models.TaskStatusDone && s.now().After(t.DueDate.Time.Add(24*time.Hour)) {
			sc.Overdue++
		}
	}

	total := len(tasks)
	if total == 0 {
		// An empty sprint is neither healthy nor unhealthy.
		sc.Total = 50
		sc.Completion = 25
		sc.ReviewPipeline = 5
		sc.Timeliness = 20
		sc.Staleness = 0
		return sc
	}

	// Completion (50 pts) - done ratio dominates the score
	sc.Completion = int(50 * float64(sc.Done) / float64(total))

	// Review pipeline (15 pts) - work in review counts as momentum
	sc.ReviewPipeline = scoreShare(sc.InReview+sc.InProgress, total, 15)

	// Timeliness (20 pts) - overdue tasks drain it
	sc.Timeliness = 20 - scoreShare(sc.Overdue, total, 20)

	// Staleness (15 pts) - penalize a sprint past its end date with open work
	sc.Staleness = scoreEndDate(sprint, sc.Done == total, s.now(), 15)

	sc.Total = sc.Completion + sc.ReviewPipeline + sc.Timeliness + sc.Staleness
	return sc
}

// scoreShare converts a count's share of the total into points.
func scoreShare(count, total, maxPoints int) int {
	if total == 0 {
		return 0
	}
	return int(float64(maxPoints) * float64(count) / float64(total))
}

// scoreEndDate penalizes sprints running past their planned end.
func scoreEndDate(sprint *models.Sprint, allDone bool, now time.Time, maxPoints int) int {
	if sprint == nil || sprint.EndDate.IsZero() || allDone {
		return maxPoints
	}
	over := now.Sub(sprint.EndDate.Time)
	switch {
	case over <= 0:
		return maxPoints
	case over <= 3*24*time.Hour:
		return int(float64(maxPoints) * 0.6)
	case over <= 7*24*time.Hour:
		return int(float64(maxPoints) * 0.3)
	default:
		return 0
	}
}
