package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/troubleshoot"
)

type cannedGenerator struct{}

func (cannedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return "## Steps\n" + strings.Split(prompt, "\n")[0], nil
}

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			c.cookie = ck.Name + "=" + ck.Value
		}
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	} else {
		out["body"] = string(raw)
	}
	return resp.StatusCode, out
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := repository.NewMemoryStore()
	app := fiber.New(fiber.Config{Views: html.New("../../../views", ".html")})
	InstallRouter(app, Services{
		Store:     store,
		Simulator: simulator.New(store, simulator.Config{RecordDelay: 0}),
		Dashboard: retention.NewDashboard(store, retention.NewMemoryCache(), 0),
		Assistant: troubleshoot.NewAssistant(cannedGenerator{}, 0),
		RateLimit: 1000,
	})
	return app
}

func signUp(t *testing.T, c *client, email string) {
	t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "Ana", "email": email, "phone": "(11) 91234-5678", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "pending_onboarding", body["state"])
	assert.Equal(t, "onboarding", body["screen"])
}

func activate(t *testing.T, c *client) {
	t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "pricing", body["screen"])

	status, body = c.do(http.MethodPost, "/api/v1/subscription/activate", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "app", body["screen"])
}

func TestLifecycleGate(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}

	status, _ := c.do(http.MethodGet, "/api/v1/integrations", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	signUp(t, c, "ana@example.com")

	status, body := c.do(http.MethodGet, "/api/v1/integrations", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "onboarding", body["screen"])

	status, body = c.do(http.MethodPost, "/api/v1/subscription/activate", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", body["error"])

	activate(t, c)

	status, body = c.do(http.MethodGet, "/api/v1/integrations", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["integrations"], 4)

	status, body = c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, body = c.do(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["logged_in"])

	status, body = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ANA@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "active", body["state"])
}

func TestSignUpRejections(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	signUp(t, c, "dup@example.com")

	other := &client{t: t, app: c.app}
	status, body := other.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "X", "email": "dup@example.com", "phone": "11912345678", "password": "p",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate_account", body["error"])

	status, body = other.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "X", "email": "short@example.com", "phone": "1234", "password": "p",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["message"], "11 digits")

	status, _ = other.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "dup@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = other.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "X", "email": "long@example.com", "phone": "11912345678", "password": strings.Repeat("p", 80),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["error"])
}

func TestSimulateDashboardLogsAndReset(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer receiver.Close()

	c := &client{t: t, app: newTestApp(t)}
	signUp(t, c, "owner@example.com")
	activate(t, c)

	status, body := c.do(http.MethodPost, "/api/v1/simulate", map[string]string{"provider": "kiwify", "event": "approved"})
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, "endpoint_required", body["error"])

	status, _ = c.do(http.MethodPut, "/api/v1/endpoint", map[string]string{"endpoint": receiver.URL})
	require.Equal(t, http.StatusOK, status)
	status, body = c.do(http.MethodPut, "/api/v1/plan-mappings", map[string]any{
		"mappings": []map[string]any{{"checkout_id": "prod_gold", "plan_name": "Gold", "is_recurring": true}},
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = c.do(http.MethodPost, "/api/v1/simulate", map[string]string{
		"provider": "kiwify", "event": "approved", "customer_email": "a@x.com",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(http.StatusNoContent), body["status_code"])

	status, _ = c.do(http.MethodPost, "/api/v1/simulate", map[string]string{
		"provider": "cakto", "event": "canceled", "customer_email": "b@x.com",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/api/v1/simulate/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["deliveries"], 2)

	status, body = c.do(http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["active"])
	assert.Equal(t, float64(1), body["at_risk"])
	assert.Equal(t, float64(2), body["total"])

	status, body = c.do(http.MethodGet, "/api/v1/logs", nil)
	require.Equal(t, http.StatusOK, status)
	logs := body["logs"].([]any)
	require.Len(t, logs, 2)
	newest := logs[0].(map[string]any)
	assert.Equal(t, "b@x.com", newest["user_email"])
	assert.Equal(t, "canceled", newest["display_status"])

	status, body = c.do(http.MethodPost, "/api/v1/logs/"+newest["id"].(string)+"/troubleshoot", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["text"], "## Steps")

	status, _ = c.do(http.MethodPost, "/api/v1/logs/evt_missing/troubleshoot", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = c.do(http.MethodDelete, "/api/v1/logs", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "confirmation_required", body["error"])
	status, _ = c.do(http.MethodDelete, "/api/v1/logs?confirm=true", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["empty"])

	status, body = c.do(http.MethodPost, "/api/v1/settings/reset", map[string]string{"confirmation": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = c.do(http.MethodPost, "/api/v1/settings/reset", map[string]string{"confirmation": "delete"})
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/api/v1/endpoint", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body["endpoint"])

	status, body = c.do(http.MethodGet, "/api/v1/simulate/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["deliveries"])

	status, body = c.do(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["logged_in"])
}

func TestIntegrationToggleKeepsSecret(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	signUp(t, c, "toggle@example.com")
	activate(t, c)

	status, _ := c.do(http.MethodPut, "/api/v1/integrations/kiwify", map[string]any{
		"connected": true, "webhook_secret": "whsec", "api_token": "tok",
	})
	require.Equal(t, http.StatusOK, status)
	status, body := c.do(http.MethodPut, "/api/v1/integrations/kiwify", map[string]any{"connected": false})
	require.Equal(t, http.StatusOK, status)

	var kiwify map[string]any
	for _, raw := range body["integrations"].([]any) {
		if card := raw.(map[string]any); card["provider"] == "kiwify" {
			kiwify = card
		}
	}
	require.NotNil(t, kiwify)
	assert.Equal(t, false, kiwify["connected"])
	assert.Equal(t, "whsec", kiwify["webhook_secret"])
	assert.Equal(t, "tok", kiwify["api_token"])
}

func TestSettingsPassword(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}
	signUp(t, c, "pw@example.com")
	activate(t, c)

	status, body := c.do(http.MethodPut, "/api/v1/settings/password", map[string]string{
		"current_password": "nope", "new_password": "next",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "incorrect_password", body["error"])

	status, body = c.do(http.MethodPut, "/api/v1/settings/password", map[string]string{
		"current_password": "s3cret", "new_password": strings.Repeat("n", 73),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["error"])

	status, _ = c.do(http.MethodPut, "/api/v1/settings/password", map[string]string{
		"current_password": "s3cret", "new_password": "next",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodPut, "/api/v1/settings/profile", map[string]string{"name": "Ana B", "phone": "21 99999-0000"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ana B", body["account"].(map[string]any)["name"])

	other := &client{t: t, app: c.app}
	status, _ = other.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "pw@example.com", "password": "next"})
	assert.Equal(t, http.StatusOK, status)
}

func TestDashboardPage(t *testing.T) {
	c := &client{t: t, app: newTestApp(t)}

	status, body := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["body"], `data-screen="login"`)
	assert.NotContains(t, body["body"], `id="avatar"`)

	signUp(t, c, "page@example.com")
	activate(t, c)

	status, body = c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["body"], `id="empty-state"`)
	assert.Contains(t, body["body"], `id="avatar"`)
}
