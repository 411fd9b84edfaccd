package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed APIResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp.StatusCode, parsed
}

func TestSendSuccessDefaults(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", map[string]int{"count": 2})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, parsed.Success)
	require.Equal(t, "success", parsed.Message)
	require.NotNil(t, parsed.Data)
}

func TestSendCreated(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendCreated(c, "submission created", nil)
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, parsed.Success)
	require.Equal(t, "submission created", parsed.Message)
}

func TestSendError(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusForbidden, "insufficient permissions")
	})

	require.Equal(t, fiber.StatusForbidden, status)
	require.False(t, parsed.Success)
	require.Equal(t, "insufficient permissions", parsed.Message)
	require.Nil(t, parsed.Data)
}
