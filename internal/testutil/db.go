package testutil

import (
	"testing"
	"time"

	"github.com/monocle-dev/taskboard/db"
	"github.com/monocle-dev/taskboard/internal/config"
	"github.com/monocle-dev/taskboard/internal/logging"
	"github.com/monocle-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

// NewTestDB opens an in-memory SQLite database with the schema migrated.
// It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.Config{
		Environment: "production",
		DBDriver:    "sqlite",
		DatabaseURL: ":memory:",
	}

	conn, err := db.Open(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(conn); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	return conn
}

func CreateUser(t *testing.T, conn *gorm.DB, name string, role models.Role) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return user
}

func CreateProject(t *testing.T, conn *gorm.DB, title string, creatorID uint) models.Project {
	t.Helper()

	project := models.Project{Title: title, CreatedBy: &creatorID}
	if err := conn.Create(&project).Error; err != nil {
		t.Fatalf("creating project %s: %v", title, err)
	}
	return project
}

// CreateTask inserts task as given, defaulting priority and status.
func CreateTask(t *testing.T, conn *gorm.DB, task models.Task) models.Task {
	t.Helper()

	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := conn.Create(&task).Error; err != nil {
		t.Fatalf("creating task %s: %v", task.Title, err)
	}
	return task
}

func AddTaskToProject(t *testing.T, conn *gorm.DB, projectID, taskID uint) {
	t.Helper()

	if err := conn.Create(&models.ProjectTaskMapping{ProjectID: projectID, TaskID: taskID}).Error; err != nil {
		t.Fatalf("adding task %d to project %d: %v", taskID, projectID, err)
	}
}

func AddMember(t *testing.T, conn *gorm.DB, projectID, userID uint) {
	t.Helper()

	if err := conn.Create(&models.ProjectUserMapping{ProjectID: projectID, UserID: userID}).Error; err != nil {
		t.Fatalf("adding user %d to project %d: %v", userID, projectID, err)
	}
}

func AssignTask(t *testing.T, conn *gorm.DB, taskID, userID uint) {
	t.Helper()

	if err := conn.Create(&models.UserTaskMapping{UserID: userID, TaskID: taskID}).Error; err != nil {
		t.Fatalf("assigning task %d to user %d: %v", taskID, userID, err)
	}
}

func Count(t *testing.T, conn *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
