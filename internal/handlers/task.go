package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/utils"
)

func (h *Handler) CreateTask(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	var body tasks.CreateTaskInput
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}
	if body.CreatedBy == 0 {
		body.CreatedBy = tasks.ID(user.ID)
	}

	task, err := h.tasks.CreateTask(ctx.Request.Context(), body)
	if err != nil {
		h.fail(ctx, "Error creating task", err)
		return
	}

	ok(ctx, http.StatusCreated, "Task created and mapped successfully", task)
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	taskID, valid := h.idParam(ctx, "task_id")
	if !valid {
		return
	}

	var body tasks.UpdateTaskInput
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	if err := h.tasks.UpdateTask(ctx.Request.Context(), taskID, user.ID, body); err != nil {
		h.fail(ctx, "Error updating task", err)
		return
	}

	ok(ctx, http.StatusOK, "Task updated and changes logged successfully", nil)
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	taskID, valid := h.idParam(ctx, "task_id")
	if !valid {
		return
	}

	if err := h.tasks.DeleteTask(ctx.Request.Context(), taskID); err != nil {
		h.fail(ctx, "Error deleting task", err)
		return
	}

	ok(ctx, http.StatusOK, "Task deleted successfully", nil)
}

func (h *Handler) GetTaskDetails(ctx *gin.Context) {
	taskID, valid := h.idParam(ctx, "task_id")
	if !valid {
		return
	}

	details, err := h.tasks.GetTaskDetails(ctx.Request.Context(), taskID)
	if err != nil {
		h.fail(ctx, "Error fetching task", err)
		return
	}

	ok(ctx, http.StatusOK, "Task fetched successfully", details)
}

func (h *Handler) GetProjectTasks(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	summaries, err := h.tasks.ListProjectTasks(ctx.Request.Context(), projectID)
	if err != nil {
		h.fail(ctx, "Error fetching project tasks", err)
		return
	}

	ok(ctx, http.StatusOK, "Project tasks fetched successfully", gin.H{"tasks": summaries})
}

func (h *Handler) GetMyTasks(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	query := tasks.TaskQuery{
		PageQuery: utils.GetPageQuery(ctx),
		Search:    ctx.Query("search"),
		Status:    ctx.Query("status"),
		Priority:  ctx.Query("priority"),
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
	}

	summaries, page, err := h.tasks.ListMyTasks(ctx.Request.Context(), user, query)
	if err != nil {
		h.fail(ctx, "Error fetching tasks", err)
		return
	}

	okPage(ctx, "Tasks fetched successfully", gin.H{"tasks": summaries}, page)
}
