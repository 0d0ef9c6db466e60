package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/monocle-dev/taskboard/internal/users"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type UpdateRoleRequest struct {
	UserID  tasks.ID    `json:"userId" binding:"required"`
	NewRole models.Role `json:"newRole" binding:"required"`
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	list, page, err := h.users.List(ctx.Request.Context(), users.ListQuery{
		PageQuery: utils.GetPageQuery(ctx),
		Search:    ctx.Query("search"),
	})
	if err != nil {
		h.fail(ctx, "Error fetching users", err)
		return
	}

	out := make([]types.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, types.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
	}

	okPage(ctx, "Users fetched successfully", gin.H{"users": out}, page)
}

func (h *Handler) UpdateUserRole(ctx *gin.Context) {
	var body UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	if err := h.users.UpdateRole(ctx.Request.Context(), uint(body.UserID), body.NewRole); err != nil {
		h.fail(ctx, "Error updating role", err)
		return
	}

	ok(ctx, http.StatusOK, fmt.Sprintf("User role updated to %s", body.NewRole), nil)
}

func (h *Handler) DeleteUser(ctx *gin.Context) {
	userID, valid := h.idParam(ctx, "user_id")
	if !valid {
		return
	}

	if err := h.users.Delete(ctx.Request.Context(), userID); err != nil {
		h.fail(ctx, "Error deleting user", err)
		return
	}

	ok(ctx, http.StatusOK, "User deleted successfully", nil)
}
