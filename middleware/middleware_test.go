package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PatientRegistry/metrics"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	r := gin.New()
	r.POST("/loginStaff", RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/loginStaff", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/loginStaff", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	r.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, util.TOO_MANY_REQUESTS, body["message"])
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/loginStaff", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own bucket")
}

func TestRateLimit_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1, IdleTTL: time.Minute})
	store.now = func() time.Time { return now }
	store.lastSweep = now

	r := gin.New()
	r.POST("/loginStaff", rateLimit(store), func(c *gin.Context) { c.Status(http.StatusOK) })
	hit := func(ip string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/loginStaff", nil)
		req.RemoteAddr = ip + ":5555"
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 1; i <= 50; i++ {
		require.Equal(t, http.StatusOK, hit(fmt.Sprintf("10.0.1.%d", i)))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.1.1"))
	assert.Equal(t, 50, store.size())

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.1.1"), "still inside the idle window")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit("10.0.2.1"))
	assert.Equal(t, 1, store.size(), "idle buckets are dropped")
	assert.Equal(t, http.StatusOK, hit("10.0.1.1"), "an evicted client starts with a fresh bucket")
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(RateLimitConfig{}), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	for _, showDetail := range []bool{false, true} {
		r := gin.New()
		r.Use(Recovery(zap.NewNop(), showDetail))
		r.GET("/boom", func(c *gin.Context) { panic("nil map write") })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Server error", body["message"])
		_, hasDetail := body["error"]
		assert.Equal(t, showDetail, hasDetail)
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.NewCollector("test")
	r := gin.New()
	r.Use(Metrics(m), RequestLogger(zap.NewNop()))
	r.GET("/patients/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/patients/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}
