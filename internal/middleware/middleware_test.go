package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Eswarhead/handcrafted-marketplace/internal/middleware"
	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticIdentity map[string]*models.Caller

func (s staticIdentity) Authenticate(_ context.Context, token string) (*models.Caller, error) {
	if caller, ok := s[token]; ok {
		return caller, nil
	}
	return nil, &services.Error{Kind: services.KindUnauthorized, Message: "invalid or expired token"}
}

func newApp(logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if services.KindOf(err) == services.KindUnauthorized {
				status = fiber.StatusUnauthorized
			}
			return c.Status(status).SendString(err.Error())
		},
	})
	app.Use(middleware.RequestLogger(logger))

	idp := staticIdentity{"good": {ID: "u1", Role: models.RoleSeller}}
	app.Get("/me", middleware.AuthRequired(idp), func(c *fiber.Ctx) error {
		caller := middleware.CallerFrom(c)
		return c.SendString(caller.ID + ":" + string(caller.Role))
	})
	app.Get("/public", func(c *fiber.Ctx) error {
		if middleware.CallerFrom(c) != nil {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newApp(zap.NewNop())

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"good", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.want, resp.StatusCode, tt.header)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/public", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := newApp(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusUnauthorized), entries[1].ContextMap()["status"])
}
