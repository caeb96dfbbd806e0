package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limccn/omi-cache-manager/internal/api/dto"
	"github.com/limccn/omi-cache-manager/internal/api/middleware"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
	"github.com/limccn/omi-cache-manager/internal/testutils"
)

func newRouter(buf *bytes.Buffer) *gin.Engine {
	router := testutils.SetupTestRouter()
	router.Use(middleware.NewLoggingMiddlewareWithLogger(zerolog.New(buf)).Logger())
	router.Use(middleware.NewErrorMiddleware().Recovery())
	router.NoRoute(middleware.NotFound())
	return router
}

func TestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(&buf)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	w := testutils.PerformRequest(router, http.MethodGet, "/ping?x=1", nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	id := w.Header().Get(middleware.RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(&buf)
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := testutils.PerformRequest(router, http.MethodGet, "/ping", map[string]string{
		middleware.RequestIDHeader: "req-42",
	})
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(&buf)
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := testutils.PerformRequest(router, http.MethodGet, "/panic", nil)
	testutils.AssertStatusCode(t, http.StatusInternalServerError, w)

	var resp dto.ErrorResponse
	testutils.ParseJSONResponse(t, w, &resp)
	assert.Equal(t, domainerrors.ErrCodeInternal, resp.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain", domainerrors.NewArgumentError("get", "missing key"), http.StatusInternalServerError, domainerrors.ErrCodeArgument},
		{"conflict", errors.Wrap(domainerrors.NewBindingConflictError(), "bind"), http.StatusConflict, domainerrors.ErrCodeBindingConflict},
		{"timeout", errors.Wrap(context.DeadlineExceeded, "get"), http.StatusGatewayTimeout, "CACHE_TIMEOUT"},
		{"other", assert.AnError, http.StatusInternalServerError, domainerrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&bytes.Buffer{})
			router.GET("/fail", func(c *gin.Context) { middleware.HandleError(c, tt.err) })

			w := testutils.PerformRequest(router, http.MethodGet, "/fail", nil)
			testutils.AssertStatusCode(t, tt.status, w)

			var resp dto.ErrorResponse
			testutils.ParseJSONResponse(t, w, &resp)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestNotFound(t *testing.T) {
	var buf bytes.Buffer
	w := testutils.PerformRequest(newRouter(&buf), http.MethodGet, "/nowhere", nil)
	testutils.AssertStatusCode(t, http.StatusNotFound, w)

	var resp dto.ErrorResponse
	testutils.ParseJSONResponse(t, w, &resp)
	assert.Equal(t, "/nowhere", resp.Details)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
