package tasks

import (
	"errors"
	"strings"
	"testing"

	"github.com/monocle-dev/taskboard/internal/models"
)

func TestTransitionTableCoversEveryStatus(t *testing.T) {
	if err := checkTransitions(models.TaskStatuses); err != nil {
		t.Fatalf("expected complete transition table, got: %v", err)
	}

	extended := append([]models.TaskStatus{}, models.TaskStatuses...)
	extended = append(extended, "BLOCKED")
	if err := checkTransitions(extended); err == nil {
		t.Error("expected error for a status missing from the table, got nil")
	}
}

func TestValidateTransition(t *testing.T) {
	chain := []models.TaskStatus{
		models.StatusTodo,
		models.StatusInProgress,
		models.StatusInTesting,
		models.StatusCompleted,
	}

	for i, current := range chain[:len(chain)-1] {
		next := chain[i+1]

		t.Run(string(current)+" accepts only its successor", func(t *testing.T) {
			if err := ValidateTransition(current, Some(next)); err != nil {
				t.Errorf("expected %s -> %s to be valid, got: %v", current, next, err)
			}

			for _, requested := range append(models.TaskStatuses, "todo", "in_progress", "DONE") {
				if requested == current || requested == next {
					continue
				}
				err := ValidateTransition(current, Some(requested))
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected %s -> %s to be rejected, got: %v", current, requested, err)
				}
				if invalid.From != current || invalid.To != requested {
					t.Errorf("expected pair (%s, %s), got (%s, %s)", current, requested, invalid.From, invalid.To)
				}
			}
		})
	}

	t.Run("absent or unchanged status is a no-op", func(t *testing.T) {
		for _, status := range models.TaskStatuses {
			if err := ValidateTransition(status, Field[models.TaskStatus]{}); err != nil {
				t.Errorf("expected absent status to be valid from %s, got: %v", status, err)
			}
			if err := ValidateTransition(status, Some(status)); err != nil {
				t.Errorf("expected unchanged status to be valid for %s, got: %v", status, err)
			}
		}
	})

	t.Run("dead ends reject every change", func(t *testing.T) {
		for _, current := range []models.TaskStatus{models.StatusCompleted, models.StatusOverdue} {
			for _, requested := range models.TaskStatuses {
				if requested == current {
					continue
				}
				if err := ValidateTransition(current, Some(requested)); err == nil {
					t.Errorf("expected %s -> %s to be rejected", current, requested)
				}
			}
		}
	})

	t.Run("message names the allowed successor", func(t *testing.T) {
		err := ValidateTransition(models.StatusTodo, Some(models.StatusCompleted))
		want := "Invalid transition: From TODO you can only go to IN_PROGRESS"
		if err == nil || !strings.HasPrefix(err.Error(), want) {
			t.Errorf("expected message starting %q, got %v", want, err)
		}

		err = ValidateTransition(models.StatusCompleted, Some(models.StatusTodo))
		if err == nil || !strings.Contains(err.Error(), "From COMPLETED no further status change is allowed") {
			t.Errorf("unexpected message for dead end: %v", err)
		}
	})
}
