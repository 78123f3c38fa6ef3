package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct {
	tokens map[string]string
}

func (v stubVerifier) Verify(_ context.Context, raw string) (string, error) {
	sub, ok := v.tokens[raw]
	if !ok {
		return "", errors.New("bad token")
	}
	return sub, nil
}

func adminApp(t *testing.T, auth *AdminAuth) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/admin", auth.RequireAdmin, func(c fiber.Ctx) error {
		return c.SendString(AdminID(c))
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/admin", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRequireAdmin_BearerToken(t *testing.T) {
	verifier := stubVerifier{tokens: map[string]string{"good": "admin-7", "nosub": ""}}
	app := adminApp(t, NewAdminAuth(verifier, false, zaptest.NewLogger(t)))

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{"valid token", map[string]string{"Authorization": "Bearer good"}, 200, "admin-7"},
		{"lowercase scheme", map[string]string{"Authorization": "bearer good"}, 200, "admin-7"},
		{"unknown token", map[string]string{"Authorization": "Bearer nope"}, 401, ""},
		{"empty subject", map[string]string{"Authorization": "Bearer nosub"}, 401, ""},
		{"missing header", nil, 401, ""},
		{"basic scheme", map[string]string{"Authorization": "Basic good"}, 401, ""},
		{"header ignored when oidc on", map[string]string{HeaderAdminID: "admin-1"}, 401, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, tt.headers)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func TestRequireAdmin_TrustedHeader(t *testing.T) {
	app := adminApp(t, NewAdminAuth(nil, true, zap.NewNop()))

	status, body := doGet(t, app, map[string]string{HeaderAdminID: " admin-1 "})
	assert.Equal(t, 200, status)
	assert.Equal(t, "admin-1", body)

	status, _ = doGet(t, app, nil)
	assert.Equal(t, 401, status)
}

func TestRequireAdmin_NoAuthConfigured(t *testing.T) {
	app := adminApp(t, NewAdminAuth(nil, false, zap.NewNop()))

	status, _ := doGet(t, app, map[string]string{HeaderAdminID: "admin-1"})
	assert.Equal(t, 401, status)
}

func TestRequireAPIKey(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", RequireAPIKey("s3cret"), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	status, _ := doGet(t, app, map[string]string{HeaderAPIKey: "s3cret"})
	assert.Equal(t, 200, status)

	status, _ = doGet(t, app, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, 200, status)

	status, _ = doGet(t, app, map[string]string{HeaderAPIKey: "wrong"})
	assert.Equal(t, 401, status)

	status, _ = doGet(t, app, nil)
	assert.Equal(t, 401, status)

	open := fiber.New()
	open.Get("/admin", RequireAPIKey(""), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	status, _ = doGet(t, open, nil)
	assert.Equal(t, 200, status)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/admin", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/boom", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	status, _ := doGet(t, app, nil)
	assert.Equal(t, 200, status)

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.EqualValues(t, 200, entries[0].ContextMap()["status"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, fiber.StatusTeapot, entries[1].ContextMap()["status"])
	assert.Equal(t, "/boom", entries[1].ContextMap()["path"])
}
