package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/log"
	"github.com/relai-app/relai-server/slackbot"
	"github.com/relai-app/relai-server/store"
	"github.com/relai-app/relai-server/workflow"
)

// SlackTaskResponse is the common response for the parse endpoints
type SlackTaskResponse struct {
	Success    bool                 `json:"success"`
	ParsedTask *slackbot.ParsedTask `json:"parsed_task,omitempty"`
	Task       *store.Task          `json:"task,omitempty"`
	Message    string               `json:"message"`
	SlackSent  bool                 `json:"slack_sent"`
}

// SlackCreateTask handles POST /slack-bot/create-task: parse the free-form
// text, persist it as a waiting task (assigned when the recipient matches a
// known user) and post it to Slack. Slack failure never fails the request.
func (h *Handlers) SlackCreateTask(c *gin.Context) {
	var body struct {
		Task    string `json:"task"`
		RawText string `json:"raw_text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	rawText := body.Task
	if rawText == "" {
		rawText = body.RawText
	}
	if rawText == "" {
		RespondBadRequest(c, "Task text is required")
		return
	}

	ctx := c.Request.Context()
	parsed := h.parser.Parse(ctx, rawText)

	var assignedTo *string
	if parsed.Recipient != "" && parsed.Recipient != "Unknown" {
		user, err := h.workflows.GetUserByName(ctx, parsed.Recipient)
		switch {
		case err == nil:
			assignedTo = &user.ID
		case errors.Is(err, store.ErrNotFound):
			log.Debug().Str("recipient", parsed.Recipient).Msg("parsed recipient is not a known user")
		default:
			respondDomainError(c, err, "Task")
			return
		}
	}

	task, err := h.workflows.CreateTask(ctx, workflow.CreateTaskInput{
		Title:            parsed.Task,
		Description:      rawText,
		Status:           store.TaskStatusWaiting,
		AssignedTo:       assignedTo,
		EstimatedHandoff: &parsed.DueDate,
	})
	if err != nil {
		respondDomainError(c, err, "Task")
		return
	}

	sent, message := h.trySendToSlack(c, parsed)
	RespondData(c, SlackTaskResponse{
		Success:    true,
		ParsedTask: &parsed,
		Task:       &task,
		Message:    message,
		SlackSent:  sent,
	})
}

// SlackParseTask handles POST /slack-bot/parse-task: parse and post to Slack
// without persisting anything.
func (h *Handlers) SlackParseTask(c *gin.Context) {
	rawText, ok := bindRawText(c)
	if !ok {
		return
	}

	parsed := h.parser.Parse(c.Request.Context(), rawText)
	sent, message := h.trySendToSlack(c, parsed)

	RespondData(c, SlackTaskResponse{
		Success:    true,
		ParsedTask: &parsed,
		Message:    message,
		SlackSent:  sent,
	})
}

// SlackParseOnly handles POST /slack-bot/parse-only
func (h *Handlers) SlackParseOnly(c *gin.Context) {
	rawText, ok := bindRawText(c)
	if !ok {
		return
	}

	parsed := h.parser.Parse(c.Request.Context(), rawText)
	RespondData(c, SlackTaskResponse{
		Success:    true,
		ParsedTask: &parsed,
		Message:    "Task parsed successfully",
	})
}

// SlackStatus handles GET /slack-bot/status
func (h *Handlers) SlackStatus(c *gin.Context) {
	if err := h.notifier.TestConnection(c.Request.Context()); err != nil {
		RespondData(c, gin.H{
			"connected": false,
			"message":   "Slack connection failed: " + err.Error(),
		})
		return
	}
	RespondData(c, gin.H{
		"connected": true,
		"message":   "Slack connection tested successfully",
	})
}

// SlackConfig handles GET /slack-bot/config. Reports what is configured
// without exposing any token values.
func (h *Handlers) SlackConfig(c *gin.Context) {
	cfg := gin.H{
		"openai_configured":    h.parser.LLMEnabled(),
		"slack_bot_configured": h.notifier.BotConfigured(),
		"slack_app_configured": h.notifier.AppConfigured(),
		"default_channel":      h.notifier.Channel(),
	}
	RespondData(c, gin.H{
		"config":         cfg,
		"all_configured": h.parser.LLMEnabled() && h.notifier.Configured(),
	})
}

// bindRawText reads the {"raw_text": ...} request body. Writes the 400
// itself when the body is unusable.
func bindRawText(c *gin.Context) (string, bool) {
	var body struct {
		RawText string `json:"raw_text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return "", false
	}
	if body.RawText == "" {
		RespondBadRequest(c, "raw_text is required")
		return "", false
	}
	return body.RawText, true
}

// trySendToSlack posts the parsed task when Slack is configured and reports
// the outcome in the response message.
func (h *Handlers) trySendToSlack(c *gin.Context, parsed slackbot.ParsedTask) (bool, string) {
	if !h.notifier.Configured() {
		return false, "Task parsed successfully, but Slack sending failed: Slack tokens not configured"
	}
	if err := h.notifier.SendTask(c.Request.Context(), parsed); err != nil {
		log.Warn().Err(err).Msg("slack sending failed")
		return false, "Task parsed successfully, but Slack sending failed: " + err.Error()
	}
	return true, "Task parsed and sent to Slack successfully"
}
