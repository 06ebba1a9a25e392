// Package api wires the HTTP surface: Gin handlers, the response envelope
// and bearer-token middleware.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/slackbot"
	"github.com/relai-app/relai-server/workflow"
)

// Handlers groups the dependencies shared by all HTTP handlers
type Handlers struct {
	workflows *workflow.Service
	parser    *slackbot.Parser
	notifier  *slackbot.Notifier
}

// NewHandlers builds the handler set from its dependencies
func NewHandlers(workflows *workflow.Service, parser *slackbot.Parser, notifier *slackbot.Notifier) *Handlers {
	return &Handlers{
		workflows: workflows,
		parser:    parser,
		notifier:  notifier,
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// API group; auth is enforced only when Google OAuth is configured
	api := r.Group("/api")
	api.Use(AuthMiddleware())

	api.GET("/health", h.Health)

	// User routes
	api.POST("/users", h.CreateUser)
	api.GET("/users", h.GetUsers)
	api.GET("/users/name/:name", h.GetUserByName)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.PUT("/users/:id/status", h.UpdateUserStatus)

	// Task routes
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks", h.GetTasks)
	api.GET("/tasks/user/:user_id", h.GetUserTasks)
	api.GET("/tasks/:id", h.GetTask)
	api.PUT("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.PUT("/tasks/:id/assign", h.AssignTask)
	api.PUT("/tasks/:id/progress", h.UpdateTaskProgress)
	api.POST("/tasks/:id/relay", h.RelayTask)
	api.POST("/tasks/:id/complete", h.CompleteTask)

	// Workflow routes - static routes first
	api.GET("/workflows", h.GetWorkflows)
	api.GET("/workflows/stats", h.GetWorkflowStats)
	api.GET("/workflows/:user_id", h.GetUserWorkflow)

	// Slack bot routes
	bot := r.Group("/slack-bot")
	bot.Use(AuthMiddleware())
	bot.POST("/create-task", h.SlackCreateTask)
	bot.POST("/parse-task", h.SlackParseTask)
	bot.POST("/parse-only", h.SlackParseOnly)
	bot.GET("/status", h.SlackStatus)
	bot.GET("/config", h.SlackConfig)

	// Auth routes
	r.GET("/auth/google/url", h.GoogleAuthURL)
	r.POST("/auth/google/token", h.GoogleToken)
	r.GET("/auth/me", RequireAuth(), h.Me)
	r.GET("/auth/protected", RequireAuth(), h.Protected)
}

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	RespondData(c, gin.H{"status": "healthy"})
}
