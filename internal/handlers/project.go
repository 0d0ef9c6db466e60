package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/projects"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type ProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

type AssignUserRequest struct {
	ProjectID tasks.ID `json:"projectId" binding:"required"`
	UserID    tasks.ID `json:"userId" binding:"required"`
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	var body ProjectRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), user.ID, projects.ProjectInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.fail(ctx, "Error creating project", err)
		return
	}

	ok(ctx, http.StatusCreated, "Project created successfully", project)
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	var body ProjectRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	project, err := h.projects.Update(ctx.Request.Context(), projectID, projects.ProjectInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.fail(ctx, "Error updating project", err)
		return
	}

	h.hub.NotifyProject(projectID)
	ok(ctx, http.StatusOK, "Project updated successfully", project)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	project, err := h.projects.Get(ctx.Request.Context(), projectID)
	if err != nil {
		h.fail(ctx, "Error fetching project details", err)
		return
	}

	ok(ctx, http.StatusOK, "Project details fetched successfully", project)
}

// ListProjects serves both the admin listing and the member's own projects;
// the service scopes by the caller's role.
func (h *Handler) ListProjects(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	list, page, err := h.projects.List(ctx.Request.Context(), user, projects.ListQuery{
		PageQuery:        utils.GetPageQuery(ctx),
		CurrentProjectID: utils.GetOptionalIDQuery(ctx, "currentProjectId"),
	})
	if err != nil {
		h.fail(ctx, "Error fetching projects", err)
		return
	}

	okPage(ctx, "Projects fetched successfully", gin.H{"projects": list}, page)
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), projectID); err != nil {
		h.fail(ctx, "Error deleting project", err)
		return
	}

	h.hub.NotifyProject(projectID)
	ok(ctx, http.StatusOK, "Project and associated data deleted successfully", nil)
}

func (h *Handler) GetProjectMembers(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	members, err := h.projects.Members(ctx.Request.Context(), projectID)
	if err != nil {
		h.fail(ctx, "Error fetching project members", err)
		return
	}

	ok(ctx, http.StatusOK, "Project members fetched successfully", gin.H{"projectMembers": members})
}

func (h *Handler) AssignUser(ctx *gin.Context) {
	var body AssignUserRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	if err := h.projects.AssignUser(ctx.Request.Context(), uint(body.ProjectID), uint(body.UserID)); err != nil {
		h.fail(ctx, "Error assigning user to project", err)
		return
	}

	h.hub.NotifyProject(uint(body.ProjectID))
	ok(ctx, http.StatusOK, "User assigned to project successfully", nil)
}

func (h *Handler) RemoveUser(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}
	userID, valid := h.idParam(ctx, "user_id")
	if !valid {
		return
	}

	if err := h.projects.RemoveUser(ctx.Request.Context(), projectID, userID); err != nil {
		h.fail(ctx, "Error removing user from project", err)
		return
	}

	h.hub.NotifyProject(projectID)
	ok(ctx, http.StatusOK, "User removed from project and associated tasks successfully", nil)
}
