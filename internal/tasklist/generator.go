// Package tasklist turns batch schedules into the day's actionable task
// list. Tasks are ephemeral view models recomputed per request; nothing
// here is persisted or cached.
package tasklist

import (
	"sort"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
)

// PriorityOverdue sorts ahead of every due-today stage.
const PriorityOverdue = 0

const (
	labelOverdue   = "Overdue"
	labelDueToday  = "Due today"
	labelScheduled = "Scheduled"
)

// Task is one actionable stage for one batch on a viewed date. Completed
// stages never produce tasks, so every task is open by construction.
type Task struct {
	BatchID   string
	BOPNumber int64
	Stage     domain.Stage
	DueDate   time.Time
	Overdue   bool
	Priority  int
	Label     string
}

// Generate produces the task list for viewedDate.
//
// A stage contributes a task iff its completion flag is false and either
// its due date equals viewedDate or it is strictly before today. Overdue
// is always judged against the real current date, not the browsed date,
// so unresolved overdue work follows the user to every day they view.
// When a stage is both overdue and due on the viewed date, the overdue
// classification wins; a stage never emits twice in one call.
//
// Output order: priority ascending (overdue first, then stage order),
// ties broken by ascending BOP number. The result is deterministic for
// identical inputs.
func Generate(cal *schedule.Calendar, batches []domain.Batch, viewedDate, today time.Time) []Task {
	viewed := cal.DateOnly(viewedDate)
	current := cal.DateOnly(today)

	tasks := make([]Task, 0, len(batches))
	for i := range batches {
		batch := &batches[i]
		for _, stage := range domain.Stages() {
			if batch.StageDone(stage) {
				continue
			}
			due := batch.StageDate(stage)
			if due == nil {
				continue
			}

			dueDay := cal.DateOnly(*due)
			switch {
			case dueDay.Before(current):
				tasks = append(tasks, Task{
					BatchID:   batch.ID,
					BOPNumber: batch.BOPNumber,
					Stage:     stage,
					DueDate:   dueDay,
					Overdue:   true,
					Priority:  PriorityOverdue,
					Label:     labelOverdue + ": " + stage.DisplayName(),
				})
			case dueDay.Equal(viewed):
				label := labelScheduled
				if viewed.Equal(current) {
					label = labelDueToday
				}
				tasks = append(tasks, Task{
					BatchID:   batch.ID,
					BOPNumber: batch.BOPNumber,
					Stage:     stage,
					DueDate:   dueDay,
					Overdue:   false,
					Priority:  stage.Order(),
					Label:     label + ": " + stage.DisplayName(),
				})
			}
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}
		return tasks[i].BOPNumber < tasks[j].BOPNumber
	})

	return tasks
}
