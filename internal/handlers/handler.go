package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/comments"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/projects"
	"github.com/monocle-dev/taskboard/internal/realtime"
	"github.com/monocle-dev/taskboard/internal/tasks"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/monocle-dev/taskboard/internal/users"
	"github.com/monocle-dev/taskboard/internal/utils"
	"go.uber.org/zap"
)

// StatusReporter describes a background job for the health endpoint.
type StatusReporter interface {
	Status() map[string]interface{}
}

type Handler struct {
	log      *zap.SugaredLogger
	tasks    *tasks.Service
	projects *projects.Service
	users    *users.Service
	comments *comments.Service
	hub      *realtime.Hub
	sweeper  StatusReporter
}

type Deps struct {
	Log      *zap.SugaredLogger
	Tasks    *tasks.Service
	Projects *projects.Service
	Users    *users.Service
	Comments *comments.Service
	Hub      *realtime.Hub
	Sweeper  StatusReporter
}

func New(d Deps) *Handler {
	return &Handler{
		log:      d.Log,
		tasks:    d.Tasks,
		projects: d.Projects,
		users:    d.Users,
		comments: d.Comments,
		hub:      d.Hub,
		sweeper:  d.Sweeper,
	}
}

func ok(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, types.Response{Success: true, Message: message, Data: data})
}

func okPage(ctx *gin.Context, message string, data interface{}, page types.Pagination) {
	ctx.JSON(http.StatusOK, types.Response{Success: true, Message: message, Data: data, Pagination: &page})
}

// statusOf maps a service error onto an HTTP status. Anything unrecognised
// is a storage failure.
func statusOf(err error) int {
	var transition *tasks.InvalidTransitionError

	switch {
	case types.IsValidation(err), errors.As(err, &transition):
		return http.StatusBadRequest
	case errors.Is(err, projects.ErrAlreadyMember),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope. Storage failures are logged and reported
// without detail.
func (h *Handler) fail(ctx *gin.Context, message string, err error) {
	status := statusOf(err)

	if status == http.StatusInternalServerError {
		h.log.Errorw(message, "error", err, "requestID", utils.GetRequestID(ctx), "path", ctx.Request.URL.Path)
		ctx.JSON(status, types.Response{Success: false, Message: message, Error: "Internal server error"})
		return
	}

	ctx.JSON(status, types.Response{Success: false, Message: message, Error: err.Error()})
}

func (h *Handler) badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, types.Response{Success: false, Message: "Invalid request", Error: err.Error()})
}

func (h *Handler) currentUser(ctx *gin.Context) (models.User, bool) {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		h.fail(ctx, "User not authenticated", err)
		return models.User{}, false
	}
	return user, true
}

// idParam parses a path id and answers 400 itself when it is malformed.
func (h *Handler) idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := utils.GetIDParam(ctx, name)
	if err != nil {
		h.badRequest(ctx, err)
		return 0, false
	}
	return id, true
}
