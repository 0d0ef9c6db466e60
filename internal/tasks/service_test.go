package tasks

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/monocle-dev/taskboard/internal/logging"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/testutil"
	"github.com/monocle-dev/taskboard/internal/types"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	projects []uint
}

func (r *recordingNotifier) NotifyProject(projectID uint) {
	r.projects = append(r.projects, projectID)
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	alice    models.User
	bob      models.User
	project  models.Project
}

func setupService(t *testing.T) fixture {
	t.Helper()

	conn := testutil.NewTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewService(conn, logging.Nop(), notifier)
	svc.now = func() time.Time { return fixedNow }

	alice := testutil.CreateUser(t, conn, "Alice", models.RoleUser)
	bob := testutil.CreateUser(t, conn, "Bob", models.RoleUser)
	project := testutil.CreateProject(t, conn, "Launch", alice.ID)

	return fixture{db: conn, svc: svc, notifier: notifier, alice: alice, bob: bob, project: project}
}

// seedTask creates a task in the fixture project assigned to Alice.
func (f fixture) seedTask(t *testing.T, status models.TaskStatus, due *time.Time) models.Task {
	t.Helper()

	task := testutil.CreateTask(t, f.db, models.Task{
		Title:     "Write release notes",
		Status:    status,
		DueDate:   due,
		CreatedBy: &f.alice.ID,
	})
	testutil.AddTaskToProject(t, f.db, f.project.ID, task.ID)
	testutil.AssignTask(t, f.db, task.ID, f.alice.ID)
	return task
}

func (f fixture) actions(t *testing.T, taskID uint) []string {
	t.Helper()

	var actions []string
	if err := f.db.Model(&models.ActivityLog{}).Where("task_id = ?", taskID).Order("id").Pluck("action", &actions).Error; err != nil {
		t.Fatalf("loading activity: %v", err)
	}
	return actions
}

func (f fixture) reload(t *testing.T, taskID uint) models.Task {
	t.Helper()

	var task models.Task
	if err := f.db.First(&task, taskID).Error; err != nil {
		t.Fatalf("reloading task %d: %v", taskID, err)
	}
	return task
}

func (f fixture) assigneeOf(t *testing.T, taskID uint) uint {
	t.Helper()

	var mapping models.UserTaskMapping
	if err := f.db.Where("task_id = ?", taskID).Take(&mapping).Error; err != nil {
		t.Fatalf("loading assignee of task %d: %v", taskID, err)
	}
	return mapping.UserID
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	jan10 := testutil.Date(2025, time.January, 10)
	feb1 := NewDate(testutil.Date(2025, time.February, 1))

	t.Run("advances status and logs the transition", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)

		err := f.svc.UpdateTask(ctx, task.ID, f.bob.ID, UpdateTaskInput{Status: Some(models.StatusInProgress)})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		got := f.reload(t, task.ID)
		if got.Status != models.StatusInProgress {
			t.Errorf("expected status IN_PROGRESS, got %s", got.Status)
		}
		if !got.UpdatedAt.Equal(fixedNow) {
			t.Errorf("expected updated_at %v, got %v", fixedNow, got.UpdatedAt)
		}

		var log models.ActivityLog
		if err := f.db.Where("task_id = ?", task.ID).Take(&log).Error; err != nil {
			t.Fatalf("loading activity row: %v", err)
		}
		if log.Action != "changed status from TODO to IN_PROGRESS" {
			t.Errorf("unexpected action %q", log.Action)
		}
		if log.UserID == nil || *log.UserID != f.bob.ID {
			t.Errorf("expected activity attributed to Bob, got %v", log.UserID)
		}
		if !reflect.DeepEqual(f.notifier.projects, []uint{f.project.ID}) {
			t.Errorf("expected project %d to be notified, got %v", f.project.ID, f.notifier.projects)
		}
	})

	t.Run("rejected transition changes nothing", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, &jan10)
		other := testutil.CreateProject(t, f.db, "Other", f.alice.ID)

		err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{
			Status:     Some(models.StatusCompleted),
			Priority:   Some(models.PriorityHigh),
			DueDate:    Some(feb1),
			AssigneeID: Some(ID(f.bob.ID)),
			ProjectID:  Some(ID(other.ID)),
		})

		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}

		got := f.reload(t, task.ID)
		if got.Status != models.StatusTodo || got.Priority != models.PriorityMedium {
			t.Errorf("expected task untouched, got status %s priority %s", got.Status, got.Priority)
		}
		if got.DueDate == nil || !got.DueDate.Equal(jan10) {
			t.Errorf("expected due date untouched, got %v", got.DueDate)
		}
		if !got.UpdatedAt.Equal(task.UpdatedAt) {
			t.Errorf("expected updated_at untouched, got %v", got.UpdatedAt)
		}
		if assignee := f.assigneeOf(t, task.ID); assignee != f.alice.ID {
			t.Errorf("expected assignee untouched, got %d", assignee)
		}
		if n := testutil.Count(t, f.db, &models.ProjectTaskMapping{}, "task_id = ? AND project_id = ?", task.ID, f.project.ID); n != 1 {
			t.Errorf("expected project mapping untouched, found %d", n)
		}
		if actions := f.actions(t, task.ID); len(actions) != 0 {
			t.Errorf("expected no activity rows, got %q", actions)
		}
		if len(f.notifier.projects) != 0 {
			t.Errorf("expected no notification, got %v", f.notifier.projects)
		}
	})

	t.Run("completed and overdue tasks cannot change status", func(t *testing.T) {
		f := setupService(t)

		for _, status := range []models.TaskStatus{models.StatusCompleted, models.StatusOverdue} {
			task := f.seedTask(t, status, nil)
			err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{Status: Some(models.StatusInProgress)})

			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("expected %s to reject a status change, got %v", status, err)
			}
		}
	})

	t.Run("rescheduling a TODO task keeps it in TODO", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, &jan10)

		if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{DueDate: Some(feb1)}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		got := f.reload(t, task.ID)
		if got.Status != models.StatusTodo {
			t.Errorf("expected status TODO, got %s", got.Status)
		}
		if got.DueDate == nil || !got.DueDate.Equal(feb1.Time) {
			t.Errorf("expected due date %v, got %v", feb1.Time, got.DueDate)
		}
		want := []string{"changed due date from 10 Jan 25 to 01 Feb 25"}
		if actions := f.actions(t, task.ID); !reflect.DeepEqual(actions, want) {
			t.Errorf("expected %q, got %q", want, actions)
		}
	})

	t.Run("rescheduling a started task puts it in progress", func(t *testing.T) {
		f := setupService(t)

		for _, status := range []models.TaskStatus{models.StatusInProgress, models.StatusInTesting, models.StatusOverdue} {
			task := f.seedTask(t, status, &jan10)

			if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{DueDate: Some(feb1)}); err != nil {
				t.Fatalf("rescheduling %s task: %v", status, err)
			}

			if got := f.reload(t, task.ID); got.Status != models.StatusInProgress {
				t.Errorf("expected %s task to become IN_PROGRESS, got %s", status, got.Status)
			}
			want := []string{"changed due date from 10 Jan 25 to 01 Feb 25"}
			if actions := f.actions(t, task.ID); !reflect.DeepEqual(actions, want) {
				t.Errorf("expected %q for %s task, got %q", want, status, actions)
			}
		}
	})

	t.Run("unchanged priority and assignee log nothing", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, &jan10)

		err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{
			Priority:   Some(models.PriorityMedium),
			AssigneeID: Some(ID(f.alice.ID)),
			DueDate:    Some(NewDate(jan10.Add(15 * time.Hour))),
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if actions := f.actions(t, task.ID); len(actions) != 0 {
			t.Errorf("expected no activity rows, got %q", actions)
		}
		if assignee := f.assigneeOf(t, task.ID); assignee != f.alice.ID {
			t.Errorf("expected assignee to stay Alice, got %d", assignee)
		}
	})

	t.Run("reassignment logs the display name and repoints the mapping", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)

		if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{AssigneeID: Some(ID(f.bob.ID))}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		want := []string{"reassigned task to Bob"}
		if actions := f.actions(t, task.ID); !reflect.DeepEqual(actions, want) {
			t.Errorf("expected %q, got %q", want, actions)
		}
		if assignee := f.assigneeOf(t, task.ID); assignee != f.bob.ID {
			t.Errorf("expected assignee Bob, got %d", assignee)
		}
		if n := testutil.Count(t, f.db, &models.UserTaskMapping{}, "task_id = ?", task.ID); n != 1 {
			t.Errorf("expected a single assignee mapping, found %d", n)
		}
	})

	t.Run("moving to another project repoints the mapping", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)
		other := testutil.CreateProject(t, f.db, "Other", f.alice.ID)

		if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{ProjectID: Some(ID(other.ID))}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if n := testutil.Count(t, f.db, &models.ProjectTaskMapping{}, "task_id = ?", task.ID); n != 1 {
			t.Fatalf("expected a single project mapping, found %d", n)
		}
		if n := testutil.Count(t, f.db, &models.ProjectTaskMapping{}, "task_id = ? AND project_id = ?", task.ID, other.ID); n != 1 {
			t.Errorf("expected task to move to project %d", other.ID)
		}
	})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusInProgress, &jan10)

		if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{Title: Some("Publish release notes")}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		got := f.reload(t, task.ID)
		if got.Title != "Publish release notes" {
			t.Errorf("expected new title, got %q", got.Title)
		}
		if got.Status != models.StatusInProgress || got.DueDate == nil || !got.DueDate.Equal(jan10) {
			t.Errorf("expected status and due date untouched, got %s %v", got.Status, got.DueDate)
		}
	})

	t.Run("unknown assignee rolls everything back", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)

		err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{
			Status:     Some(models.StatusInProgress),
			AssigneeID: Some[ID](999),
		})
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}

		if got := f.reload(t, task.ID); got.Status != models.StatusTodo {
			t.Errorf("expected status rolled back to TODO, got %s", got.Status)
		}
		if actions := f.actions(t, task.ID); len(actions) != 0 {
			t.Errorf("expected no activity rows, got %q", actions)
		}
	})

	t.Run("storage failure while logging rolls back the update", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)

		failing := errors.New("disk full")
		err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_activity", func(tx *gorm.DB) {
			if tx.Statement.Table == "activity_logs" {
				_ = tx.AddError(failing)
			}
		})
		if err != nil {
			t.Fatalf("registering callback: %v", err)
		}

		err = f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{Status: Some(models.StatusInProgress)})
		if !errors.Is(err, failing) {
			t.Fatalf("expected storage failure, got %v", err)
		}

		if got := f.reload(t, task.ID); got.Status != models.StatusTodo {
			t.Errorf("expected status rolled back to TODO, got %s", got.Status)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		f := setupService(t)

		err := f.svc.UpdateTask(ctx, 4242, f.alice.ID, UpdateTaskInput{Title: Some("x")})
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("malformed payload never reaches the store", func(t *testing.T) {
		f := setupService(t)
		task := f.seedTask(t, models.StatusTodo, nil)

		err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{Priority: Some[models.Priority]("URGENT")})
		if !types.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("creates task with mappings and a creation entry", func(t *testing.T) {
		f := setupService(t)

		task, err := f.svc.CreateTask(ctx, CreateTaskInput{
			Title:      "Plan sprint",
			DueDate:    NewDate(testutil.Date(2025, time.March, 3)),
			CreatedBy:  ID(f.alice.ID),
			ProjectID:  ID(f.project.ID),
			AssigneeID: ID(f.bob.ID),
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		got := f.reload(t, task.ID)
		if got.Status != models.StatusTodo || got.Priority != models.PriorityMedium {
			t.Errorf("expected defaults TODO/MEDIUM, got %s/%s", got.Status, got.Priority)
		}
		if assignee := f.assigneeOf(t, task.ID); assignee != f.bob.ID {
			t.Errorf("expected assignee Bob, got %d", assignee)
		}
		if n := testutil.Count(t, f.db, &models.ProjectTaskMapping{}, "task_id = ? AND project_id = ?", task.ID, f.project.ID); n != 1 {
			t.Errorf("expected task in project %d", f.project.ID)
		}
		if actions := f.actions(t, task.ID); !reflect.DeepEqual(actions, []string{"created the task"}) {
			t.Errorf("unexpected activity %q", actions)
		}
	})

	t.Run("unknown project creates nothing", func(t *testing.T) {
		f := setupService(t)

		_, err := f.svc.CreateTask(ctx, CreateTaskInput{
			Title:     "Orphan",
			CreatedBy: ID(f.alice.ID),
			ProjectID: 999,
		})
		if !errors.Is(err, ErrProjectNotFound) {
			t.Fatalf("expected ErrProjectNotFound, got %v", err)
		}
		if n := testutil.Count(t, f.db, &models.Task{}, ""); n != 0 {
			t.Errorf("expected no tasks, found %d", n)
		}
		if n := testutil.Count(t, f.db, &models.ActivityLog{}, ""); n != 0 {
			t.Errorf("expected no activity rows, found %d", n)
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		f := setupService(t)

		_, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: " ", CreatedBy: ID(f.alice.ID)})
		if !types.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	task := f.seedTask(t, models.StatusTodo, nil)

	if err := f.db.Create(&models.Comment{Description: "looks good", TaskID: task.ID, CreatedBy: f.bob.ID}).Error; err != nil {
		t.Fatalf("creating comment: %v", err)
	}
	if err := f.svc.UpdateTask(ctx, task.ID, f.alice.ID, UpdateTaskInput{Priority: Some(models.PriorityHigh)}); err != nil {
		t.Fatalf("updating task: %v", err)
	}

	if err := f.svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	for name, model := range map[string]interface{}{
		"activity logs":    &models.ActivityLog{},
		"comments":         &models.Comment{},
		"assignee mapping": &models.UserTaskMapping{},
		"project mapping":  &models.ProjectTaskMapping{},
	} {
		if n := testutil.Count(t, f.db, model, "task_id = ?", task.ID); n != 0 {
			t.Errorf("expected %s to be deleted, found %d", name, n)
		}
	}

	if err := f.svc.DeleteTask(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestTaskQueries(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	first := f.seedTask(t, models.StatusTodo, nil)
	second := testutil.CreateTask(t, f.db, models.Task{Title: "Fix login bug", Priority: models.PriorityHigh, CreatedBy: &f.bob.ID})
	testutil.AddTaskToProject(t, f.db, f.project.ID, second.ID)
	testutil.AssignTask(t, f.db, second.ID, f.bob.ID)

	if err := f.svc.UpdateTask(ctx, first.ID, f.bob.ID, UpdateTaskInput{Status: Some(models.StatusInProgress)}); err != nil {
		t.Fatalf("updating task: %v", err)
	}
	if err := f.db.Create(&models.Comment{Description: "on it", TaskID: first.ID, CreatedBy: f.alice.ID}).Error; err != nil {
		t.Fatalf("creating comment: %v", err)
	}

	t.Run("details include comments and named activity", func(t *testing.T) {
		details, err := f.svc.GetTaskDetails(ctx, first.ID)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(details.Comments) != 1 || details.Comments[0].User != "Alice" {
			t.Errorf("unexpected comments: %+v", details.Comments)
		}
		if len(details.Logs) != 1 || details.Logs[0].UserName == nil || *details.Logs[0].UserName != "Bob" {
			t.Errorf("unexpected logs: %+v", details.Logs)
		}
	})

	t.Run("project listing includes names", func(t *testing.T) {
		summaries, err := f.svc.ListProjectTasks(ctx, f.project.ID)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("expected 2 tasks, got %d", len(summaries))
		}
		for _, s := range summaries {
			if s.ProjectName == nil || *s.ProjectName != "Launch" {
				t.Errorf("expected project name Launch for task %d, got %v", s.ID, s.ProjectName)
			}
			if s.AssignedToName == nil {
				t.Errorf("expected assignee name for task %d", s.ID)
			}
		}
	})

	t.Run("users only see their assignments", func(t *testing.T) {
		summaries, page, err := f.svc.ListMyTasks(ctx, f.bob, TaskQuery{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if page.Total != 1 || len(summaries) != 1 || summaries[0].ID != second.ID {
			t.Errorf("expected only task %d, got %+v (total %d)", second.ID, summaries, page.Total)
		}
	})

	t.Run("admins see everything and can filter", func(t *testing.T) {
		admin := testutil.CreateUser(t, f.db, "Root", models.RoleAdmin)

		summaries, page, err := f.svc.ListMyTasks(ctx, admin, TaskQuery{Priority: "HIGH"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if page.Total != 1 || len(summaries) != 1 || summaries[0].ID != second.ID {
			t.Errorf("expected only the HIGH task, got %+v", summaries)
		}

		summaries, page, err = f.svc.ListMyTasks(ctx, admin, TaskQuery{Search: "RELEASE", SortBy: "title", SortOrder: "asc"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if page.Total != 1 || summaries[0].ID != first.ID {
			t.Errorf("expected search to match task %d, got %+v", first.ID, summaries)
		}
	})
}
