package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/tasks"
)

type CreateCommentRequest struct {
	TaskID      tasks.ID `json:"taskId" binding:"required"`
	Description string   `json:"description" binding:"required"`
}

type UpdateCommentRequest struct {
	Description string `json:"description"`
}

func (h *Handler) CreateComment(ctx *gin.Context) {
	user, found := h.currentUser(ctx)
	if !found {
		return
	}

	var body CreateCommentRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	comment, err := h.comments.Create(ctx.Request.Context(), user, uint(body.TaskID), body.Description)
	if err != nil {
		h.fail(ctx, "Error adding comment", err)
		return
	}

	ok(ctx, http.StatusCreated, "Comment added successfully", comment)
}

func (h *Handler) UpdateComment(ctx *gin.Context) {
	commentID, valid := h.idParam(ctx, "comment_id")
	if !valid {
		return
	}

	var body UpdateCommentRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badRequest(ctx, err)
		return
	}

	if err := h.comments.Update(ctx.Request.Context(), commentID, body.Description); err != nil {
		h.fail(ctx, "Error updating comment", err)
		return
	}

	ok(ctx, http.StatusOK, "Comment updated successfully", nil)
}

func (h *Handler) DeleteComment(ctx *gin.Context) {
	commentID, valid := h.idParam(ctx, "comment_id")
	if !valid {
		return
	}

	if err := h.comments.Delete(ctx.Request.Context(), commentID); err != nil {
		h.fail(ctx, "Error deleting comment", err)
		return
	}

	ok(ctx, http.StatusOK, "Comment deleted successfully", nil)
}
