package tasks

import (
	"strings"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
)

// UpdateTaskInput is a partial update. Only attributes with Set are touched.
type UpdateTaskInput struct {
	Title       Field[string]            `json:"title"`
	Description Field[*string]           `json:"description"`
	Status      Field[models.TaskStatus] `json:"status"`
	Priority    Field[models.Priority]   `json:"priority"`
	DueDate     Field[*Date]             `json:"dueDate"`
	AssigneeID  Field[ID]                `json:"assignedUserId"`
	ProjectID   Field[ID]                `json:"projectId"`
}

// Validate rejects malformed payloads. Status values are left to the
// transition validator, which needs the stored status to judge them.
func (in UpdateTaskInput) Validate() error {
	if in.Title.Set && strings.TrimSpace(in.Title.Value) == "" {
		return types.Invalid("title", "should not be empty")
	}
	if in.Priority.Set && !in.Priority.Value.Valid() {
		return types.Invalid("priority", "must be one of LOW, MEDIUM, HIGH")
	}
	if in.AssigneeID.Set && in.AssigneeID.Value == 0 {
		return types.Invalid("assignedUserId", "must be a user id")
	}
	if in.ProjectID.Set && in.ProjectID.Value == 0 {
		return types.Invalid("projectId", "must be a project id")
	}
	return nil
}

type CreateTaskInput struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *Date           `json:"dueDate"`
	CreatedBy   ID              `json:"createdBy"`
	ProjectID   ID              `json:"projectId"`
	AssigneeID  ID              `json:"assignedUserId"`
}

func (in *CreateTaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.Invalid("title", "should not be empty")
	}
	if in.CreatedBy == 0 {
		return types.Invalid("createdBy", "should not be empty")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return types.Invalid("priority", "must be one of LOW, MEDIUM, HIGH")
	}
	return nil
}
