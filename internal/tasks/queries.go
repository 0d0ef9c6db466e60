package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/gorm"
)

type TaskSummary struct {
	ID             uint              `json:"id"`
	Title          string            `json:"title"`
	Description    *string           `json:"description,omitempty"`
	Status         models.TaskStatus `json:"status"`
	Priority       models.Priority   `json:"priority"`
	DueDate        *time.Time        `json:"dueDate"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	ProjectID      *uint             `json:"projectId"`
	ProjectName    *string           `json:"projectName"`
	CreatedByName  *string           `json:"createdByName"`
	AssignedToID   *uint             `json:"assignedToId"`
	AssignedToName *string           `json:"assignedToName"`
}

type CommentView struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      uint      `json:"userId"`
	User        string    `gorm:"column:author_name" json:"user"`
}

type ActivityView struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
	UserName  *string   `json:"userName"`
}

type TaskDetails struct {
	Task     models.Task    `json:"task"`
	Comments []CommentView  `json:"taskComments"`
	Logs     []ActivityView `json:"logs"`
}

// TaskQuery filters the "my tasks" listing.
type TaskQuery struct {
	types.PageQuery
	Search    string
	Status    string
	Priority  string
	SortBy    string
	SortOrder string
}

var sortColumns = map[string]string{
	"createdAt": "tasks.created_at",
	"updatedAt": "tasks.updated_at",
	"dueDate":   "tasks.due_date",
	"title":     "tasks.title",
	"status":    "tasks.status",
	"priority":  "tasks.priority",
}

const summaryColumns = `tasks.id, tasks.title, tasks.description, tasks.status, tasks.priority,
	tasks.due_date, tasks.created_at, tasks.updated_at,
	projects.id AS project_id, projects.title AS project_name,
	creator.name AS created_by_name,
	assignee.id AS assigned_to_id, assignee.name AS assigned_to_name`

func summaryJoins(db *gorm.DB) *gorm.DB {
	return db.Table("tasks").
		Joins("LEFT JOIN project_task_mappings ptm ON ptm.task_id = tasks.id").
		Joins("LEFT JOIN projects ON projects.id = ptm.project_id").
		Joins("LEFT JOIN users creator ON creator.id = tasks.created_by").
		Joins("LEFT JOIN user_task_mappings utm ON utm.task_id = tasks.id").
		Joins("LEFT JOIN users assignee ON assignee.id = utm.user_id")
}

// GetTaskDetails returns a task with its comments (oldest first) and its
// activity trail (newest first).
func (s *Service) GetTaskDetails(ctx context.Context, taskID uint) (*TaskDetails, error) {
	db := s.db.WithContext(ctx)

	task, err := findTask(db, taskID)
	if err != nil {
		return nil, err
	}

	details := &TaskDetails{Task: task, Comments: []CommentView{}, Logs: []ActivityView{}}

	err = db.Table("comments").
		Select("comments.id, comments.description, comments.created_at, users.id AS user_id, users.name AS author_name").
		Joins("JOIN users ON users.id = comments.created_by").
		Where("comments.task_id = ?", taskID).
		Order("comments.created_at ASC, comments.id ASC").
		Scan(&details.Comments).Error
	if err != nil {
		return nil, fmt.Errorf("loading comments of task %d: %w", taskID, err)
	}

	err = db.Table("activity_logs").
		Select("activity_logs.id, activity_logs.action, activity_logs.created_at, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = activity_logs.user_id").
		Where("activity_logs.task_id = ?", taskID).
		Order("activity_logs.created_at DESC, activity_logs.id DESC").
		Scan(&details.Logs).Error
	if err != nil {
		return nil, fmt.Errorf("loading activity of task %d: %w", taskID, err)
	}

	return details, nil
}

func (s *Service) ListProjectTasks(ctx context.Context, projectID uint) ([]TaskSummary, error) {
	summaries := []TaskSummary{}

	err := summaryJoins(s.db.WithContext(ctx)).
		Select(summaryColumns).
		Where("ptm.project_id = ?", projectID).
		Order("tasks.created_at DESC, tasks.id DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("listing tasks of project %d: %w", projectID, err)
	}

	return summaries, nil
}

// ListMyTasks pages through the tasks visible to viewer: every task for an
// admin, the tasks assigned to them otherwise.
func (s *Service) ListMyTasks(ctx context.Context, viewer models.User, q TaskQuery) ([]TaskSummary, types.Pagination, error) {
	q.PageQuery = q.PageQuery.Normalize()

	filtered := func() *gorm.DB {
		db := summaryJoins(s.db.WithContext(ctx))

		if !viewer.IsAdmin() {
			db = db.Where("utm.user_id = ?", viewer.ID)
		}
		if q.Status != "" && q.Status != "ALL" {
			db = db.Where("tasks.status = ?", q.Status)
		}
		if q.Priority != "" && q.Priority != "ALL" {
			db = db.Where("tasks.priority = ?", q.Priority)
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("(LOWER(tasks.title) LIKE ? OR LOWER(projects.title) LIKE ?)", like, like)
		}

		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("counting tasks: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	order := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		order = "ASC"
	}

	summaries := []TaskSummary{}
	err := filtered().
		Select(summaryColumns).
		Order(fmt.Sprintf("%s %s, tasks.id %s", column, order, order)).
		Limit(q.Limit).
		Offset(q.Offset()).
		Scan(&summaries).Error
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("listing tasks: %w", err)
	}

	return summaries, types.NewPagination(q.PageQuery, total), nil
}
