package models

// TaskStatus is the lifecycle state of a task. The spellings are stored as-is
// and must not change.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInTesting  TaskStatus = "IN_TESTING"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusOverdue    TaskStatus = "OVERDUE"
)

// TaskStatuses lists every status in lifecycle order.
var TaskStatuses = []TaskStatus{
	StatusTodo,
	StatusInProgress,
	StatusInTesting,
	StatusCompleted,
	StatusOverdue,
}

func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	for _, priority := range Priorities {
		if p == priority {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
