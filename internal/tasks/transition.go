package tasks

import (
	"fmt"

	"github.com/monocle-dev/taskboard/internal/models"
)

// transitions maps every status to its single allowed successor. An empty
// successor marks a dead end. OVERDUE is only ever entered by the sweeper.
var transitions = map[models.TaskStatus]models.TaskStatus{
	models.StatusTodo:       models.StatusInProgress,
	models.StatusInProgress: models.StatusInTesting,
	models.StatusInTesting:  models.StatusCompleted,
	models.StatusCompleted:  "",
	models.StatusOverdue:    "",
}

func init() {
	if err := checkTransitions(models.TaskStatuses); err != nil {
		panic(err)
	}
}

func checkTransitions(statuses []models.TaskStatus) error {
	for _, status := range statuses {
		if _, ok := transitions[status]; !ok {
			return fmt.Errorf("status %s has no entry in the transition table", status)
		}
	}
	if len(transitions) != len(statuses) {
		return fmt.Errorf("transition table has %d entries for %d statuses", len(transitions), len(statuses))
	}
	return nil
}

// NextStatus returns the successor of status, if it has one.
func NextStatus(status models.TaskStatus) (models.TaskStatus, bool) {
	next := transitions[status]
	return next, next != ""
}

// InvalidTransitionError names the rejected (from, to) pair.
type InvalidTransitionError struct {
	From models.TaskStatus
	To   models.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	if next, ok := NextStatus(e.From); ok {
		return fmt.Sprintf("Invalid transition: From %s you can only go to %s (requested %s)", e.From, next, e.To)
	}
	return fmt.Sprintf("Invalid transition: From %s no further status change is allowed (requested %s)", e.From, e.To)
}

// ValidateTransition decides whether a task at current may move to requested.
// An absent or unchanged request is always valid.
func ValidateTransition(current models.TaskStatus, requested Field[models.TaskStatus]) error {
	if !requested.Set || requested.Value == current {
		return nil
	}

	if next, ok := NextStatus(current); ok && requested.Value == next {
		return nil
	}

	return &InvalidTransitionError{From: current, To: requested.Value}
}
