package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/handlers"
	"github.com/monocle-dev/taskboard/internal/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Log            *zap.SugaredLogger
	AllowedOrigins []string
	Tokens         *auth.Manager
	Users          middleware.UserLoader
	Handler        *handlers.Handler
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := opts.Handler
	authenticated := middleware.AuthMiddleware(opts.Tokens, opts.Users)
	adminOnly := middleware.RequireAdmin()

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws/:project_id", authenticated, h.WebSocket)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.GET("/me", authenticated, h.Me)
		}

		user := api.Group("/user", authenticated)
		{
			user.POST("/add-task", h.CreateTask)
			user.PUT("/update-task/:task_id", h.UpdateTask)
			user.DELETE("/delete-task/:task_id", h.DeleteTask)
			user.GET("/task/:task_id", h.GetTaskDetails)
			user.GET("/get-my-tasks", h.GetMyTasks)
			user.GET("/get-project-tasks/:project_id", h.GetProjectTasks)

			user.POST("/add-comment", h.CreateComment)
			user.PATCH("/update-comment/:comment_id", h.UpdateComment)
			user.DELETE("/delete-comment/:comment_id", h.DeleteComment)

			user.GET("/user-projects", h.ListProjects)
			user.GET("/project-members/:project_id", h.GetProjectMembers)

			user.PATCH("/update-role", adminOnly, h.UpdateUserRole)
			user.DELETE("/delete-user/:user_id", adminOnly, h.DeleteUser)
		}

		admin := api.Group("/admin", authenticated)
		{
			admin.GET("/get-all-users", h.ListUsers)

			admin.POST("/create-project", adminOnly, h.CreateProject)
			admin.POST("/assign-user", adminOnly, h.AssignUser)
			admin.GET("/get-all-projects", adminOnly, h.ListProjects)
			admin.GET("/get-project-details/:project_id", adminOnly, h.GetProject)
			admin.GET("/get-project-users/:project_id", adminOnly, h.GetProjectMembers)
			admin.PATCH("/update-project/:project_id", adminOnly, h.UpdateProject)
			admin.DELETE("/delete-project/:project_id", adminOnly, h.DeleteProject)
			admin.DELETE("/remove-user/:project_id/:user_id", adminOnly, h.RemoveUser)
		}
	}

	return r
}
