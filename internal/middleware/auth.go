package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/monocle-dev/taskboard/internal/utils"
)

// UserLoader resolves the user a token was issued for.
type UserLoader interface {
	Get(ctx context.Context, userID uint) (*models.User, error)
}

func unauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, types.Response{
		Success: false,
		Message: message,
	})
}

// bearerToken reads the Authorization header, falling back to ?token= for
// websocket handshakes, which cannot carry custom headers from a browser.
func bearerToken(ctx *gin.Context) (string, bool) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		token := ctx.Query("token")
		return token, token != ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware verifies the bearer token and stores the current user in
// the request context. The user is reloaded so role changes apply at once.
func AuthMiddleware(tokens *auth.Manager, users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			unauthorized(ctx, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			unauthorized(ctx, "Invalid or expired token")
			return
		}

		user, err := users.Get(ctx.Request.Context(), claims.UserID)
		if err != nil {
			unauthorized(ctx, "User not found")
			return
		}

		ctx.Set(types.ContextUserKey, *user)
		ctx.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := utils.GetCurrentUser(ctx)
		if err != nil {
			unauthorized(ctx, "User not authenticated")
			return
		}

		if !user.IsAdmin() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, types.Response{
				Success: false,
				Message: "Access denied: admins only",
			})
			return
		}

		ctx.Next()
	}
}
