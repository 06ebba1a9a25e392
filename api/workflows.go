package api

import (
	"github.com/gin-gonic/gin"
)

// GetUserWorkflow handles GET /api/workflows/:user_id
func (h *Handlers) GetUserWorkflow(c *gin.Context) {
	wf, err := h.workflows.UserWorkflow(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondDomainError(c, err, "Workflow")
		return
	}
	RespondData(c, wf)
}

// GetWorkflows handles GET /api/workflows
func (h *Handlers) GetWorkflows(c *gin.Context) {
	workflows, err := h.workflows.AllWorkflows(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "Workflow")
		return
	}
	RespondData(c, workflows)
}

// GetWorkflowStats handles GET /api/workflows/stats
func (h *Handlers) GetWorkflowStats(c *gin.Context) {
	stats, err := h.workflows.Stats(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "Workflow")
		return
	}
	RespondData(c, stats)
}
