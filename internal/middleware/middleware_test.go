package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
)

const secret = "mw-secret"

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", handlers...)
	return r
}

func get(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + tok}}
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	var got domain.Actor
	r := newEngine(AuthMiddleware(&config.Config{JWTSecret: secret}), func(c *gin.Context) {
		got = ActorFrom(c)
		c.Status(http.StatusOK)
	})

	tok, err := SignToken(secret, domain.Actor{ID: "prov-1", Role: domain.RoleProvider}, time.Hour)
	require.NoError(t, err)

	w := get(r, bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Actor{ID: "prov-1", Role: domain.RoleProvider}, got)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	r := newEngine(AuthMiddleware(&config.Config{JWTSecret: secret}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	expired, err := SignToken(secret, domain.Actor{ID: "pat-1", Role: domain.RolePatient}, -time.Minute)
	require.NoError(t, err)

	// a system role can never be asserted from outside
	system, err := SignToken(secret, domain.Actor{ID: "root", Role: domain.RoleSystem}, time.Hour)
	require.NoError(t, err)

	numericSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42, "role": "patient", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]http.Header{
		"missing":     nil,
		"basic":       {"Authorization": []string{"Basic abc"}},
		"expired":     bearer(expired),
		"system role": bearer(system),
		"numeric sub": bearer(numericSub),
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, h).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newEngine(
		AuthMiddleware(&config.Config{JWTSecret: secret}),
		RequireRole(domain.RoleProvider),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	pat, _ := SignToken(secret, domain.Actor{ID: "pat-1", Role: domain.RolePatient}, time.Hour)
	prov, _ := SignToken(secret, domain.Actor{ID: "prov-1", Role: domain.RoleProvider}, time.Hour)

	assert.Equal(t, http.StatusForbidden, get(r, bearer(pat)).Code)
	assert.Equal(t, http.StatusOK, get(r, bearer(prov)).Code)
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := newEngine(RequestLogger(zap.New(core)), func(c *gin.Context) {
		LoggerFrom(c).Info("inside")
		c.Status(http.StatusTeapot)
	})

	w := get(r, http.Header{"X-Request-Id": []string{"req-123"}})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "request", entries[1].Message)
	assert.Equal(t, int64(http.StatusTeapot), entries[1].ContextMap()["status"])

	w = get(r, nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(6)
	r := newEngine(rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	w := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestRateLimiterEvictsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(6)
	clock := time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	require.True(t, rl.limiter("pat-1").Allow())
	require.False(t, rl.limiter("pat-1").Allow())
	rl.limiter("pat-2")

	clock = clock.Add(5 * time.Minute)
	rl.limiter("pat-2")
	assert.Equal(t, 2, rl.Len())

	clock = clock.Add(6 * time.Minute)
	rl.limiter("ip:10.0.0.1")

	// pat-1 went quiet for longer than the idle window
	assert.Equal(t, 2, rl.Len())
	assert.True(t, rl.limiter("pat-1").Allow())
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowlist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://portal.clinic.test/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := corsRequest(r, http.MethodGet, "https://Portal.clinic.test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://Portal.clinic.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Retry-After, X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))

	w = corsRequest(r, http.MethodOptions, "https://portal.clinic.test")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// foreign origins get no headers and a refused preflight
	w = corsRequest(r, http.MethodGet, "https://evil.test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(r, http.MethodOptions, "https://evil.test")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSWithoutAllowlistReflectsAnyOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := corsRequest(r, http.MethodGet, "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = corsRequest(r, http.MethodGet, "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
