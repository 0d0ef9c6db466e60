package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = fmt.Errorf("comment %w", types.ErrNotFound)
	ErrTaskNotFound    = fmt.Errorf("task %w", types.ErrNotFound)
	ErrNotMember       = fmt.Errorf("you are not a member of this project: %w", types.ErrForbidden)
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a comment to a task. Only admins and members of the task's
// project may comment.
func (s *Service) Create(ctx context.Context, author models.User, taskID uint, description string) (*models.Comment, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, types.Invalid("description", "should not be empty")
	}

	db := s.db.WithContext(ctx)

	var tasks int64
	if err := db.Model(&models.Task{}).Where("id = ?", taskID).Count(&tasks).Error; err != nil {
		return nil, fmt.Errorf("loading task %d: %w", taskID, err)
	}
	if tasks == 0 {
		return nil, ErrTaskNotFound
	}

	if !author.IsAdmin() {
		var memberships int64
		err := db.Model(&models.ProjectTaskMapping{}).
			Joins("JOIN project_user_mappings pum ON pum.project_id = project_task_mappings.project_id").
			Where("project_task_mappings.task_id = ? AND pum.user_id = ?", taskID, author.ID).
			Count(&memberships).Error
		if err != nil {
			return nil, fmt.Errorf("checking membership: %w", err)
		}
		if memberships == 0 {
			return nil, ErrNotMember
		}
	}

	now := s.now()
	comment := models.Comment{
		Description: description,
		TaskID:      taskID,
		CreatedBy:   author.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.log.Infow("comment added", "comment_id", comment.ID, "task_id", taskID, "actor_id", author.ID)
	return &comment, nil
}

func (s *Service) Update(ctx context.Context, commentID uint, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return types.Invalid("description", "updating description should not be empty")
	}

	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).Updates(map[string]interface{}{
		"description": description,
		"updated_at":  s.now(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, commentID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if res.Error != nil {
		return fmt.Errorf("deleting comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Get is used by callers that need the comment before acting on it.
func (s *Service) Get(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment

	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("loading comment %d: %w", commentID, err)
	}
	return &comment, nil
}
