package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/middleware"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// New builds the route table and wraps it in mws, outermost first.
func New(handlers Handlers, mws ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	r := router.New()
	r.RedirectTrailingSlash = false

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	api := r.Group("/api")
	api.GET("/tasks", handlers.Task.GetTasks)
	api.POST("/tasks", handlers.Task.CreateTask)
	api.GET("/tasks/{id}", handlers.Task.GetTask)
	api.PUT("/tasks/{id}", handlers.Task.UpdateTask)
	api.DELETE("/tasks/{id}", handlers.Task.DeleteTask)
	api.GET("/tasks/{id}/events", handlers.Task.TaskEvents)

	return middleware.Chain(r.Handler, mws...)
}
