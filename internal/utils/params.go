package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/types"
)

// GetIDParam parses a positive numeric path parameter such as :task_id.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	if raw == "" {
		return 0, types.Invalid(name, "is required")
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, types.Invalid(name, "must be a positive number")
	}

	return uint(id), nil
}

// GetPageQuery reads ?page= and ?limit=, leaving bad values to Normalize.
func GetPageQuery(ctx *gin.Context) types.PageQuery {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	return types.PageQuery{Page: page, Limit: limit}.Normalize()
}

// GetOptionalIDQuery reads an optional numeric query parameter, returning 0
// when it is absent or malformed.
func GetOptionalIDQuery(ctx *gin.Context, name string) uint {
	id, err := strconv.ParseUint(ctx.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
