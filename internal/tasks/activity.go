package tasks

import (
	"fmt"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
)

const displayDateLayout = "02 Jan 06"

// Snapshot is the state the activity trail is diffed against: the task row
// and its assignee as stored before the update.
type Snapshot struct {
	Status     models.TaskStatus
	Priority   models.Priority
	DueDate    *time.Time
	AssigneeID *uint
}

func snapshotOf(task models.Task, assignee *models.UserTaskMapping) Snapshot {
	s := Snapshot{
		Status:   task.Status,
		Priority: task.Priority,
		DueDate:  task.DueDate,
	}
	if assignee != nil {
		id := assignee.UserID
		s.AssigneeID = &id
	}
	return s
}

// NameResolver looks up the display name of a user.
type NameResolver func(userID uint) (string, error)

// DiffActions turns an update into audit lines, in a fixed order: status,
// priority, assignee, due date. Unchanged attributes produce nothing.
func DiffActions(before Snapshot, in UpdateTaskInput, resolveName NameResolver) ([]string, error) {
	var actions []string

	if in.Status.Set && in.Status.Value != before.Status {
		actions = append(actions, fmt.Sprintf("changed status from %s to %s", before.Status, in.Status.Value))
	}

	if in.Priority.Set && in.Priority.Value != before.Priority {
		actions = append(actions, fmt.Sprintf("changed priority to %s", in.Priority.Value))
	}

	if in.AssigneeID.Set && (before.AssigneeID == nil || *before.AssigneeID != uint(in.AssigneeID.Value)) {
		name, err := resolveName(uint(in.AssigneeID.Value))
		if err != nil {
			return nil, err
		}
		actions = append(actions, fmt.Sprintf("reassigned task to %s", name))
	}

	if in.DueDate.Set {
		next := in.DueDate.Value.timePtr()
		if !sameDay(before.DueDate, next) {
			actions = append(actions, fmt.Sprintf("changed due date from %s to %s", formatDate(before.DueDate), formatDate(next)))
		}
	}

	return actions, nil
}

// sameDay compares two optional timestamps by UTC calendar date.
func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UTC().Format(dateLayout) == b.UTC().Format(dateLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "no date"
	}
	return t.UTC().Format(displayDateLayout)
}
