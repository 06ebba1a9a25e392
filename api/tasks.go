package api

import (
	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/store"
	"github.com/relai-app/relai-server/workflow"
)

// CreateTask handles POST /api/tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	var body struct {
		Title            string  `json:"title"`
		Description      string  `json:"description"`
		Progress         int     `json:"progress"`
		Status           string  `json:"status"`
		AssignedTo       *string `json:"assignedTo"`
		RelayedFrom      *string `json:"relayedFrom"`
		EstimatedHandoff *string `json:"estimatedHandoff"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.workflows.CreateTask(c.Request.Context(), workflow.CreateTaskInput{
		Title:            body.Title,
		Description:      body.Description,
		Progress:         body.Progress,
		Status:           body.Status,
		AssignedTo:       body.AssignedTo,
		RelayedFrom:      body.RelayedFrom,
		EstimatedHandoff: body.EstimatedHandoff,
	})
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	RespondCreated(c, task)
}

// GetTasks handles GET /api/tasks
func (h *Handlers) GetTasks(c *gin.Context) {
	tasks, err := h.workflows.ListTasks(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}
	RespondList(c, tasks)
}

// GetTask handles GET /api/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	task, err := h.workflows.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}
	RespondData(c, task)
}

// GetUserTasks handles GET /api/tasks/user/:user_id
func (h *Handlers) GetUserTasks(c *gin.Context) {
	tasks, err := h.workflows.TasksForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}
	RespondList(c, tasks)
}

// UpdateTask handles PUT /api/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	var body struct {
		Title            *string `json:"title"`
		Description      *string `json:"description"`
		Progress         *int    `json:"progress"`
		Status           *string `json:"status"`
		AssignedTo       *string `json:"assignedTo"`
		EstimatedHandoff *string `json:"estimatedHandoff"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.workflows.UpdateTask(c.Request.Context(), c.Param("id"), store.TaskPatch{
		Title:            body.Title,
		Description:      body.Description,
		Progress:         body.Progress,
		Status:           body.Status,
		AssignedTo:       body.AssignedTo,
		EstimatedHandoff: body.EstimatedHandoff,
	})
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	RespondData(c, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	if err := h.workflows.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "Task")
		return
	}
	RespondNoContent(c)
}

// AssignTask handles PUT /api/tasks/:id/assign
func (h *Handlers) AssignTask(c *gin.Context) {
	var body struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.workflows.Assign(c.Request.Context(), c.Param("id"), body.AssignedTo)
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	RespondData(c, task)
}

// UpdateTaskProgress handles PUT /api/tasks/:id/progress
func (h *Handlers) UpdateTaskProgress(c *gin.Context) {
	var body struct {
		Progress int `json:"progress"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.workflows.UpdateProgress(c.Request.Context(), c.Param("id"), body.Progress)
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	RespondData(c, task)
}

// RelayTask handles POST /api/tasks/:id/relay
func (h *Handlers) RelayTask(c *gin.Context) {
	var body struct {
		FromUser string `json:"from_user"`
		ToUser   string `json:"to_user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.workflows.Relay(c.Request.Context(), c.Param("id"), body.FromUser, body.ToUser)
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	RespondData(c, task)
}

// CompleteTask handles POST /api/tasks/:id/complete
func (h *Handlers) CompleteTask(c *gin.Context) {
	task, err := h.workflows.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}
	RespondData(c, task)
}
