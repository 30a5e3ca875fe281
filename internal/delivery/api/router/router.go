// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tasker/internal/delivery/api/middleware"
	"tasker/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	TaskHandler     *handler.TaskHandler
	ActivityHandler *handler.ActivityHandler
	IdentityHandler *handler.IdentityHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	taskHandler     *handler.TaskHandler
	activityHandler *handler.ActivityHandler
	identityHandler *handler.IdentityHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		taskHandler:     params.TaskHandler,
		activityHandler: params.ActivityHandler,
		identityHandler: params.IdentityHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate)

	apiV1.GET("/me", r.identityHandler.Me)

	tasksGroup := apiV1.Group("/tasks")
	{
		tasksGroup.POST("", r.taskHandler.CreateTask)
		tasksGroup.GET("", r.taskHandler.ListTasks)
		tasksGroup.GET("/tree", r.taskHandler.GetTaskTree)
		tasksGroup.GET("/:id", r.taskHandler.GetTask)
		tasksGroup.PATCH("/:id", r.taskHandler.UpdateTask)
		tasksGroup.POST("/:id/toggle", r.taskHandler.ToggleTask)
		tasksGroup.GET("/:id/activity", r.activityHandler.ListTaskActivity)
		tasksGroup.DELETE("/:id", r.taskHandler.DeleteTask)
	}
}
