package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const createdAction = "created the task"

var (
	ErrTaskNotFound    = fmt.Errorf("task %w", types.ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", types.ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", types.ErrNotFound)
)

// Notifier is told which project changed once a write has committed.
type Notifier interface {
	NotifyProject(projectID uint)
}

type nopNotifier struct{}

func (nopNotifier) NotifyProject(uint) {}

type Service struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		db:       db,
		log:      log,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpdateTask applies a partial update to a task as one atomic unit: the
// transition check, the field update, the activity trail and the mapping
// re-points either all land or none do.
func (s *Service) UpdateTask(ctx context.Context, taskID, actorID uint, in UpdateTaskInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	var (
		projectID uint
		logged    int
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}

		assignee, err := findAssignee(tx, taskID)
		if err != nil {
			return err
		}

		if err := ValidateTransition(task.Status, in.Status); err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(taskChanges(task, in, now)).Error; err != nil {
			return fmt.Errorf("updating task %d: %w", taskID, err)
		}

		actions, err := DiffActions(snapshotOf(task, assignee), in, func(userID uint) (string, error) {
			return userName(tx, userID)
		})
		if err != nil {
			return err
		}

		if err := writeActivity(tx, taskID, actorID, actions, now); err != nil {
			return err
		}
		logged = len(actions)

		if in.ProjectID.Set {
			if err := repointProject(tx, taskID, uint(in.ProjectID.Value), now); err != nil {
				return err
			}
		}

		if in.AssigneeID.Set {
			if err := repointAssignee(tx, taskID, uint(in.AssigneeID.Value), now); err != nil {
				return err
			}
		}

		projectID, err = projectOf(tx, taskID)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Infow("task updated", "task_id", taskID, "actor_id", actorID, "activity_rows", logged)
	s.notify(projectID)
	return nil
}

// taskChanges builds the column set for an update. Unsupplied attributes are
// left out so they keep their stored values.
func taskChanges(task models.Task, in UpdateTaskInput, now time.Time) map[string]interface{} {
	changes := map[string]interface{}{"updated_at": now}

	if in.Title.Set {
		changes["title"] = in.Title.Value
	}
	if in.Description.Set {
		changes["description"] = in.Description.Value
	}
	if in.Status.Set {
		changes["status"] = in.Status.Value
	}
	if in.Priority.Set {
		changes["priority"] = in.Priority.Value
	}
	if in.DueDate.Set {
		changes["due_date"] = in.DueDate.Value.timePtr()

		if rescheduleForcesInProgress(task.Status, in) {
			changes["status"] = models.StatusInProgress
		}
	}

	return changes
}

// rescheduleForcesInProgress reports whether moving the due date of a task
// that has already started puts it back into active work. Tasks still in
// TODO are left alone, and an explicit status in the same update wins.
func rescheduleForcesInProgress(stored models.TaskStatus, in UpdateTaskInput) bool {
	return in.DueDate.Set && !in.Status.Set && stored != models.StatusTodo
}

// CreateTask inserts a task with its optional project and assignee mappings
// and the "created the task" activity row.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var task models.Task

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		creatorID := uint(in.CreatedBy)

		if _, err := userName(tx, creatorID); err != nil {
			return err
		}

		task = models.Task{
			Title:       in.Title,
			Description: in.Description,
			Status:      models.StatusTodo,
			Priority:    in.Priority,
			DueDate:     in.DueDate.timePtr(),
			CreatedBy:   &creatorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		if in.ProjectID != 0 {
			if err := repointProject(tx, task.ID, uint(in.ProjectID), now); err != nil {
				return err
			}
		}

		if in.AssigneeID != 0 {
			if _, err := userName(tx, uint(in.AssigneeID)); err != nil {
				return err
			}
			if err := repointAssignee(tx, task.ID, uint(in.AssigneeID), now); err != nil {
				return err
			}
		}

		return writeActivity(tx, task.ID, creatorID, []string{createdAction}, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("task created", "task_id", task.ID, "actor_id", uint(in.CreatedBy))
	s.notify(uint(in.ProjectID))
	return &task, nil
}

// DeleteTask removes a task together with everything it owns.
func (s *Service) DeleteTask(ctx context.Context, taskID uint) error {
	var projectID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findTask(tx, taskID); err != nil {
			return err
		}

		var err error
		if projectID, err = projectOf(tx, taskID); err != nil {
			return err
		}

		return DeleteTasks(tx, []uint{taskID})
	})
	if err != nil {
		return err
	}

	s.notify(projectID)
	return nil
}

// DeleteTasks removes the given tasks and all rows that reference them. The
// caller owns the transaction.
func DeleteTasks(tx *gorm.DB, taskIDs []uint) error {
	if len(taskIDs) == 0 {
		return nil
	}

	owned := []interface{}{
		&models.UserTaskMapping{},
		&models.ProjectTaskMapping{},
		&models.ActivityLog{},
		&models.Comment{},
	}

	for _, model := range owned {
		if err := tx.Where("task_id IN ?", taskIDs).Delete(model).Error; err != nil {
			return fmt.Errorf("deleting rows owned by tasks: %w", err)
		}
	}

	if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}

	return nil
}

func (s *Service) notify(projectID uint) {
	if projectID != 0 {
		s.notifier.NotifyProject(projectID)
	}
}

func findTask(tx *gorm.DB, taskID uint) (models.Task, error) {
	var task models.Task

	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return task, ErrTaskNotFound
		}
		return task, fmt.Errorf("loading task %d: %w", taskID, err)
	}

	return task, nil
}

func findAssignee(tx *gorm.DB, taskID uint) (*models.UserTaskMapping, error) {
	var mapping models.UserTaskMapping

	if err := tx.Where("task_id = ?", taskID).Take(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading assignee of task %d: %w", taskID, err)
	}

	return &mapping, nil
}

func userName(tx *gorm.DB, userID uint) (string, error) {
	var user models.User

	if err := tx.Select("id", "name").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("loading user %d: %w", userID, err)
	}

	return user.Name, nil
}

func projectOf(tx *gorm.DB, taskID uint) (uint, error) {
	var ids []uint

	if err := tx.Model(&models.ProjectTaskMapping{}).Where("task_id = ?", taskID).Pluck("project_id", &ids).Error; err != nil {
		return 0, fmt.Errorf("loading project of task %d: %w", taskID, err)
	}

	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func writeActivity(tx *gorm.DB, taskID, actorID uint, actions []string, now time.Time) error {
	if len(actions) == 0 {
		return nil
	}

	logs := make([]models.ActivityLog, 0, len(actions))
	for _, action := range actions {
		actor := actorID
		logs = append(logs, models.ActivityLog{
			TaskID:    taskID,
			UserID:    &actor,
			Action:    action,
			CreatedAt: now,
		})
	}

	if err := tx.Create(&logs).Error; err != nil {
		return fmt.Errorf("writing activity for task %d: %w", taskID, err)
	}

	return nil
}

// repointProject moves the task's single project mapping to projectID,
// creating the mapping when the task has none yet.
func repointProject(tx *gorm.DB, taskID, projectID uint, now time.Time) error {
	var count int64
	if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return fmt.Errorf("loading project %d: %w", projectID, err)
	}
	if count == 0 {
		return ErrProjectNotFound
	}

	res := tx.Model(&models.ProjectTaskMapping{}).Where("task_id = ?", taskID).Update("project_id", projectID)
	if res.Error != nil {
		return fmt.Errorf("moving task %d to project %d: %w", taskID, projectID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	mapping := models.ProjectTaskMapping{ProjectID: projectID, TaskID: taskID, CreatedAt: now}
	if err := tx.Create(&mapping).Error; err != nil {
		return fmt.Errorf("adding task %d to project %d: %w", taskID, projectID, err)
	}
	return nil
}

// repointAssignee moves the task's single assignee mapping to userID,
// creating the mapping when the task is unassigned.
func repointAssignee(tx *gorm.DB, taskID, userID uint, now time.Time) error {
	res := tx.Model(&models.UserTaskMapping{}).Where("task_id = ?", taskID).Update("user_id", userID)
	if res.Error != nil {
		return fmt.Errorf("reassigning task %d to user %d: %w", taskID, userID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	mapping := models.UserTaskMapping{UserID: userID, TaskID: taskID, CreatedAt: now}
	if err := tx.Create(&mapping).Error; err != nil {
		return fmt.Errorf("assigning task %d to user %d: %w", taskID, userID, err)
	}
	return nil
}
