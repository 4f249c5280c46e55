package http

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Jack-Libra/coffeenote/internal/observability"
	apperrors "github.com/Jack-Libra/coffeenote/pkg/util/errorutil"
)

type errorBody struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"request_id"`
	} `json:"error"`
}

func TestErrorHandlingMiddleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), nil, time.Second)
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewUnauthorizedWithCause("token cannot be refreshed", errors.New("token has expired"))
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("subject and secret required", map[string]any{"field": "subject"})
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	call := func(path string) (int, errorBody) {
		req := httptest.NewRequest(nethttp.MethodGet, path, nil)
		req.Header.Set(observability.RequestIDHeader, "req-"+path[1:])
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var body errorBody
		require.NoError(t, json.Unmarshal(raw, &body))
		return resp.StatusCode, body
	}

	status, body := call("/denied")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Equal(t, "token cannot be refreshed", body.Error.Message)
	assert.Equal(t, "req-denied", body.Error.RequestID)

	status, body = call("/invalid")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "subject", body.Error.Details["field"])

	status, body = call("/panic")
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)

	assert.Equal(t, 1, logs.FilterMessage("request denied").FilterField(zap.String("request_id", "req-denied")).Len())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}
