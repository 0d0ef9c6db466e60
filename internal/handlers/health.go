package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(ctx *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"message":   "Taskboard is running",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.sweeper != nil {
		body["overdue_sweeper"] = h.sweeper.Status()
	}

	ctx.JSON(http.StatusOK, body)
}
