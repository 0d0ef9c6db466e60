package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = fmt.Errorf("project %w", types.ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", types.ErrNotFound)
	ErrAlreadyMember   = errors.New("user is already assigned to this project")
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

type ProjectInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (in *ProjectInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.Invalid("title", "should not be empty")
	}
	return nil
}

type Member struct {
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// ListQuery pages through the projects visible to a user. CurrentProjectID,
// when set, is listed first.
type ListQuery struct {
	types.PageQuery
	CurrentProjectID uint
}

func (s *Service) Create(ctx context.Context, creatorID uint, in ProjectInput) (*models.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	project := models.Project{
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   &creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.log.Infow("project created", "project_id", project.ID, "actor_id", creatorID)
	return &project, nil
}

func (s *Service) Update(ctx context.Context, projectID uint, in ProjectInput) (*models.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	res := db.Model(&models.Project{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"updated_at":  s.now(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("updating project %d: %w", projectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProjectNotFound
	}

	return s.Get(ctx, projectID)
}

func (s *Service) Get(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project

	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project %d: %w", projectID, err)
	}

	return &project, nil
}

// List returns every project for an admin and the member projects otherwise,
// ordered by title.
func (s *Service) List(ctx context.Context, viewer models.User, q ListQuery) ([]models.Project, types.Pagination, error) {
	q.PageQuery = q.PageQuery.Normalize()

	scoped := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.Project{})
		if !viewer.IsAdmin() {
			db = db.Joins("JOIN project_user_mappings pum ON pum.project_id = projects.id").
				Where("pum.user_id = ?", viewer.ID)
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("counting projects: %w", err)
	}

	query := scoped().Select("projects.*")
	if q.CurrentProjectID != 0 {
		query = query.Order(fmt.Sprintf("CASE WHEN projects.id = %d THEN 0 ELSE 1 END", q.CurrentProjectID))
	}

	projects := []models.Project{}
	err := query.
		Order("projects.title ASC, projects.id ASC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&projects).Error
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("listing projects: %w", err)
	}

	return projects, types.NewPagination(q.PageQuery, total), nil
}

func (s *Service) Members(ctx context.Context, projectID uint) ([]Member, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}

	members := []Member{}
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.role").
		Joins("JOIN project_user_mappings pum ON pum.user_id = users.id").
		Where("pum.project_id = ?", projectID).
		Order("users.name ASC").
		Scan(&members).Error
	if err != nil {
		return nil, fmt.Errorf("listing members of project %d: %w", projectID, err)
	}

	return members, nil
}

// IsMember reports whether userID belongs to projectID.
func (s *Service) IsMember(ctx context.Context, projectID, userID uint) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.ProjectUserMapping{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking membership of user %d in project %d: %w", userID, projectID, err)
	}

	return count > 0, nil
}

func (s *Service) AssignUser(ctx context.Context, projectID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Project{}, projectID, ErrProjectNotFound); err != nil {
			return err
		}
		if err := exists(tx, &models.User{}, userID, ErrUserNotFound); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.ProjectUserMapping{}).Where("project_id = ? AND user_id = ?", projectID, userID).Count(&count).Error; err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if count > 0 {
			return ErrAlreadyMember
		}

		mapping := models.ProjectUserMapping{ProjectID: projectID, UserID: userID, CreatedAt: s.now()}
		if err := tx.Create(&mapping).Error; err != nil {
			return fmt.Errorf("assigning user %d to project %d: %w", userID, projectID, err)
		}
		return nil
	})
}

// RemoveUser drops the membership and unassigns the user from every task of
// the project.
func (s *Service) RemoveUser(ctx context.Context, projectID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectUserMapping{}).Error; err != nil {
			return fmt.Errorf("removing user %d from project %d: %w", userID, projectID, err)
		}

		taskIDs := tx.Model(&models.ProjectTaskMapping{}).Select("task_id").Where("project_id = ?", projectID)
		if err := tx.Where("user_id = ? AND task_id IN (?)", userID, taskIDs).Delete(&models.UserTaskMapping{}).Error; err != nil {
			return fmt.Errorf("unassigning user %d from tasks of project %d: %w", userID, projectID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("user removed from project", "project_id", projectID, "user_id", userID)
	return nil
}

// Delete removes the project and all of its tasks in one transaction.
func (s *Service) Delete(ctx context.Context, projectID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Project{}, projectID, ErrProjectNotFound); err != nil {
			return err
		}

		var taskIDs []uint
		if err := tx.Model(&models.ProjectTaskMapping{}).Where("project_id = ?", projectID).Pluck("task_id", &taskIDs).Error; err != nil {
			return fmt.Errorf("loading tasks of project %d: %w", projectID, err)
		}

		if err := tasks.DeleteTasks(tx, taskIDs); err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectUserMapping{}).Error; err != nil {
			return fmt.Errorf("deleting members of project %d: %w", projectID, err)
		}

		if err := tx.Delete(&models.Project{}, projectID).Error; err != nil {
			return fmt.Errorf("deleting project %d: %w", projectID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("project deleted", "project_id", projectID)
	return nil
}

func exists(tx *gorm.DB, model interface{}, id uint, notFound error) error {
	var count int64

	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("checking %T %d: %w", model, id, err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}
