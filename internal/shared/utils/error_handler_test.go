package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runErrorHandler(t *testing.T, handlerErr error) (int, map[string]interface{}) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger.NewLoggerWithConfig("error", "text"))})
	app.Get("/", func(c *fiber.Ctx) error { return handlerErr })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandler_AppError(t *testing.T) {
	status, body := runErrorHandler(t, apperrors.NewAuthorizationError("Not authorized to update this station"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Not authorized to update this station", body["message"])
	assert.NotContains(t, body, "errors")
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	ve := apperrors.NewValidationErrors().
		Add("name", "Station name is required", "").
		Add("connectorType", "Invalid connector type", "Tesla")

	status, body := runErrorHandler(t, ve.ToAppError())
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Station name is required", body["message"])
	details, ok := body["errors"].([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestErrorHandler_FiberError(t *testing.T) {
	status, body := runErrorHandler(t, fiber.NewError(fiber.StatusUpgradeRequired, "Upgrade Required"))
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.Equal(t, "Upgrade Required", body["message"])
}

func TestErrorHandler_UnknownError(t *testing.T) {
	status, body := runErrorHandler(t, errors.New("mongo: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["message"])
}
