package middlewares

import (
	"MedOffice/apperrors"
	"MedOffice/metrics"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateBearerToken(t *testing.T) {
	r := newRouter(ValidateBearerToken("secret"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}

	open := newRouter(ValidateBearerToken(""))
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	r := newRouter(NewRateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 0.0001, Burst: 2}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusOK, serve(r, other).Code)
}

func TestCorsMiddleware(t *testing.T) {
	r := newRouter(CorsMiddleware(&CorsConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	blocked := httptest.NewRequest(http.MethodGet, "/ping", nil)
	blocked.Header.Set("Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, blocked).Code)
}

func TestHttpError(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{apperrors.NotFound("payment %s not found", "p-1"), http.StatusNotFound, apperrors.CodeNotFound},
		{apperrors.InvalidArgument("bad amount"), http.StatusBadRequest, apperrors.CodeInvalidArgument},
		{apperrors.Wrap(apperrors.Conflict("already paid"), "failed"), http.StatusConflict, apperrors.CodeConflict},
		{errors.New("db down"), http.StatusInternalServerError, apperrors.CodeInternal},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { HttpError(c, zap.NewNop(), "request failed", tt.err) })
		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, tt.want, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.code, body["code"])
		if tt.want == http.StatusInternalServerError {
			assert.Equal(t, "request failed", body["error"])
		}
	}
}

func TestActorMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ActorMiddleware())
	r.GET("/actor", func(c *gin.Context) {
		c.String(http.StatusOK, ResolveActor(c, c.Query("explicit")))
	})

	req := httptest.NewRequest(http.MethodGet, "/actor", nil)
	req.Header.Set(ActorHeader, "front-desk")
	assert.Equal(t, "front-desk", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/actor?explicit=dr-lopez", nil)
	req.Header.Set(ActorHeader, "front-desk")
	assert.Equal(t, "dr-lopez", serve(r, req).Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	collector := metrics.NewCollector()
	r := newRouter(MetricsMiddleware(collector), LoggingMiddleware(zap.NewNop()))

	serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	count, err := testutil.GatherAndCount(collector.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
