package handlers

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) WebSocket(ctx *gin.Context) {
	projectID, valid := h.idParam(ctx, "project_id")
	if !valid {
		return
	}

	h.hub.Serve(ctx.Writer, ctx.Request, projectID)
}
