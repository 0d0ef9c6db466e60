package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/monocle-dev/taskboard/internal/types"
	"go.uber.org/zap"
)

func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		ctx.Set(types.ContextRequestIDKey, requestID)
		ctx.Header("X-Request-ID", requestID)

		ctx.Next()

		log.Infow("request",
			"requestID", requestID,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"clientIP", ctx.ClientIP(),
			"latency", time.Since(start).String(),
		)
	}
}
