package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
)

var ErrNotAuthenticated = errors.New("user not authenticated")

func GetCurrentUser(ctx *gin.Context) (models.User, error) {
	value, exists := ctx.Get(types.ContextUserKey)
	if !exists {
		return models.User{}, ErrNotAuthenticated
	}

	user, ok := value.(models.User)
	if !ok {
		return models.User{}, ErrNotAuthenticated
	}

	return user, nil
}

func GetRequestID(ctx *gin.Context) string {
	return ctx.GetString(types.ContextRequestIDKey)
}
