package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
)

func addressApp(cfg fiber.Config) *fiber.App {
	app := fiber.New(cfg)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ClientAddress(c))
	})
	return app
}

func addressOf(t *testing.T, app *fiber.App, headers map[string]string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestClientAddress(t *testing.T) {
	// app.Test connections come from 0.0.0.0
	app := addressApp(fiber.Config{EnableTrustedProxyCheck: true, TrustedProxies: []string{"0.0.0.0"}})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "2001:db8::1", "X-Forwarded-For": "198.51.100.1"}, want: "2001:db8::1"},
		{name: "first forwarded entry", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, want: "198.51.100.1"},
		{name: "garbage header skipped", headers: map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
		{name: "mapped ipv4", headers: map[string]string{"X-Real-IP": "::ffff:192.0.2.10"}, want: "192.0.2.10"},
		{name: "socket address", headers: nil, want: "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addressOf(t, app, tt.headers))
		})
	}
}

func TestClientAddressIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	spoofed := map[string]string{
		"CF-Connecting-IP": "203.0.113.7",
		"X-Forwarded-For":  "198.51.100.1",
		"X-Real-IP":        "198.51.100.9",
	}

	for name, cfg := range map[string]fiber.Config{
		"check disabled":    {},
		"peer not listed":   {EnableTrustedProxyCheck: true, TrustedProxies: []string{"10.0.0.0/8"}},
		"no proxies listed": {EnableTrustedProxyCheck: true},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "0.0.0.0", addressOf(t, addressApp(cfg), spoofed))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/api/contact", func(c *fiber.Ctx) error {
		return errors.New("smtp password is hunter2")
	})
	app.Get("/api/v1/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad slug")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/contact", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var intakeBody intake.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&intakeBody))
	assert.False(t, intakeBody.OK)
	assert.Equal(t, intake.MsgInternalError, intakeBody.Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var apiBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiBody))
	assert.Equal(t, "bad_request", apiBody["error"])
	assert.Equal(t, "bad slug", apiBody["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
