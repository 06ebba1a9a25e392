package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/slackbot"
	"github.com/relai-app/relai-server/store"
	"github.com/relai-app/relai-server/workflow"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	service := workflow.NewService(store.NewMemoryStore())
	parser := slackbot.NewParser("", "", "")
	notifier := slackbot.NewNotifier("", "", "general")

	SetupRoutes(r, NewHandlers(service, parser, notifier))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body: %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v (body: %s)", err, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var data map[string]string
	decodeData(t, w, &data)
	if data["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", data["status"])
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":"Draft report","description":"Q3 draft"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	var task store.Task
	decodeData(t, w, &task)
	if task.ID == "" {
		t.Fatal("created task has no id")
	}
	if task.Status != store.TaskStatusActive {
		t.Errorf("status = %q, want active", task.Status)
	}
	if task.Progress != 0 {
		t.Errorf("progress = %d, want 0", task.Progress)
	}

	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID+"/progress", `{"progress":150}`)
	if w.Code != http.StatusOK {
		t.Fatalf("progress status = %d, want 200", w.Code)
	}
	decodeData(t, w, &task)
	if task.Progress != 100 {
		t.Errorf("progress = %d, want 100 (clamped)", task.Progress)
	}

	w = doJSON(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want 200", w.Code)
	}
	decodeData(t, w, &task)
	if task.Status != store.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", task.Status)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/tasks/"+task.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks/"+task.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}
}

func TestCreateTask_ValidationError(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/tasks", `{"description":"no title"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error.Code != ErrCodeValidation {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrCodeValidation)
	}
}

func TestRelayOverHTTP(t *testing.T) {
	r := newTestRouter()

	var alice, bob store.User
	w := doJSON(t, r, http.MethodPost, "/api/users", `{"name":"Alice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create user status = %d", w.Code)
	}
	decodeData(t, w, &alice)
	w = doJSON(t, r, http.MethodPost, "/api/users", `{"name":"Bob"}`)
	decodeData(t, w, &bob)

	var task store.Task
	w = doJSON(t, r, http.MethodPost, "/api/tasks",
		`{"title":"Draft report","description":"Q3 draft","assignedTo":"`+alice.ID+`"}`)
	decodeData(t, w, &task)

	w = doJSON(t, r, http.MethodPost, "/api/tasks/"+task.ID+"/relay",
		`{"from_user":"`+alice.ID+`","to_user":"`+bob.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("relay status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &task)
	if task.AssignedTo == nil || *task.AssignedTo != bob.ID {
		t.Errorf("assignedTo = %v, want %s", task.AssignedTo, bob.ID)
	}
	if task.RelayedFrom == nil || *task.RelayedFrom != alice.ID {
		t.Errorf("relayedFrom = %v, want %s", task.RelayedFrom, alice.ID)
	}
	if task.RelayedAt == nil {
		t.Error("relayedAt not stamped")
	}

	var wf store.WorkflowData
	w = doJSON(t, r, http.MethodGet, "/api/workflows/"+bob.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("workflow status = %d", w.Code)
	}
	decodeData(t, w, &wf)
	if wf.ActiveWork == nil || wf.ActiveWork.ID != task.ID {
		t.Errorf("bob's activeWork = %v, want task %s", wf.ActiveWork, task.ID)
	}

	w = doJSON(t, r, http.MethodGet, "/api/workflows/"+alice.ID, "")
	decodeData(t, w, &wf)
	if wf.ActiveWork != nil {
		t.Errorf("alice's activeWork = %v, want nil", wf.ActiveWork)
	}
}

func TestWorkflowStatsRouteNotShadowed(t *testing.T) {
	r := newTestRouter()

	doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":"a","description":"b"}`)
	doJSON(t, r, http.MethodPost, "/api/tasks", `{"title":"c","description":"d","status":"waiting"}`)

	w := doJSON(t, r, http.MethodGet, "/api/workflows/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var stats store.WorkflowStats
	decodeData(t, w, &stats)
	if stats.TotalTasks != 2 {
		t.Errorf("total_tasks = %d, want 2", stats.TotalTasks)
	}
	if stats.ActiveTasks != 1 || stats.WaitingTasks != 1 {
		t.Errorf("active/waiting = %d/%d, want 1/1", stats.ActiveTasks, stats.WaitingTasks)
	}
}

func TestUserEndpoints(t *testing.T) {
	r := newTestRouter()

	var user store.User
	w := doJSON(t, r, http.MethodPost, "/api/users", `{"name":"Carol"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	decodeData(t, w, &user)
	if user.Status != store.UserStatusIdle {
		t.Errorf("status = %q, want idle", user.Status)
	}
	if user.Avatar != store.DefaultAvatar {
		t.Errorf("avatar = %q, want default", user.Avatar)
	}

	w = doJSON(t, r, http.MethodGet, "/api/users/name/Carol", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get by name status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/api/users/"+user.ID+"/status", `{"status":"working"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status update status = %d", w.Code)
	}
	decodeData(t, w, &user)
	if user.Status != store.UserStatusWorking {
		t.Errorf("status = %q, want working", user.Status)
	}

	w = doJSON(t, r, http.MethodPut, "/api/users/"+user.ID+"/status", `{"status":"away"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status update = %d, want 400", w.Code)
	}
}

func TestSlackParseOnly(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/slack-bot/parse-only",
		`{"raw_text":"Remind Alex to review the Q3 numbers tomorrow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp SlackTaskResponse
	decodeData(t, w, &resp)
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.SlackSent {
		t.Error("slack_sent = true, want false")
	}
	if resp.ParsedTask == nil || resp.ParsedTask.Recipient != "Alex" {
		t.Errorf("parsed recipient = %v, want Alex", resp.ParsedTask)
	}
}

func TestSlackCreateTaskPersists(t *testing.T) {
	r := newTestRouter()

	var alex store.User
	w := doJSON(t, r, http.MethodPost, "/api/users", `{"name":"Alex"}`)
	decodeData(t, w, &alex)

	w = doJSON(t, r, http.MethodPost, "/slack-bot/create-task",
		`{"task":"Remind Alex to review the Q3 numbers tomorrow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp SlackTaskResponse
	decodeData(t, w, &resp)
	if resp.Task == nil {
		t.Fatal("no task persisted")
	}
	if resp.Task.Status != store.TaskStatusWaiting {
		t.Errorf("status = %q, want waiting", resp.Task.Status)
	}
	if resp.Task.AssignedTo == nil || *resp.Task.AssignedTo != alex.ID {
		t.Errorf("assignedTo = %v, want %s", resp.Task.AssignedTo, alex.ID)
	}
	if resp.SlackSent {
		t.Error("slack_sent = true without tokens configured")
	}
}

func TestSlackConfigReportsUnconfigured(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/slack-bot/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var data struct {
		Config        map[string]any `json:"config"`
		AllConfigured bool           `json:"all_configured"`
	}
	decodeData(t, w, &data)
	if data.AllConfigured {
		t.Error("all_configured = true without any tokens")
	}
	if data.Config["default_channel"] != "general" {
		t.Errorf("default_channel = %v, want general", data.Config["default_channel"])
	}
}

func TestAuthEndpointsRequireToken(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/auth/me without token = %d, want 401", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/auth/protected", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/auth/protected without token = %d, want 401", w.Code)
	}
}
