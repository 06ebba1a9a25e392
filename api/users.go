package api

import (
	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/store"
	"github.com/relai-app/relai-server/workflow"
)

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var body struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.workflows.CreateUser(c.Request.Context(), workflow.CreateUserInput{
		Name:   body.Name,
		Avatar: body.Avatar,
		Status: body.Status,
	})
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}

	RespondCreated(c, user)
}

// GetUsers handles GET /api/users
func (h *Handlers) GetUsers(c *gin.Context) {
	users, err := h.workflows.ListUsers(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}
	RespondList(c, users)
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.workflows.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}
	RespondData(c, user)
}

// GetUserByName handles GET /api/users/name/:name
func (h *Handlers) GetUserByName(c *gin.Context) {
	user, err := h.workflows.GetUserByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}
	RespondData(c, user)
}

// UpdateUser handles PUT /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	var body struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.workflows.UpdateUser(c.Request.Context(), c.Param("id"), store.UserPatch{
		Name:   body.Name,
		Avatar: body.Avatar,
		Status: body.Status,
	})
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}

	RespondData(c, user)
}

// UpdateUserStatus handles PUT /api/users/:id/status
func (h *Handlers) UpdateUserStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.workflows.SetUserStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		respondDomainError(c, err, "User")
		return
	}

	RespondData(c, user)
}

// DeleteUser handles DELETE /api/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.workflows.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "User")
		return
	}
	RespondNoContent(c)
}
