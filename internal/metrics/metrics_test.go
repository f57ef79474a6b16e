package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfornaciari/ebook-subscribe-api/internal/metrics"
)

func TestMetrics_HTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics("test")

	r := gin.New()
	r.Use(m.HTTPMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/ping", "2xx")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestMetrics_BusinessCounters(t *testing.T) {
	m := metrics.NewMetrics("test")

	m.RecordUpsert(nil)
	m.RecordUpsert(errors.New("boom"))
	m.RecordWelcomeEmail(nil)
	m.IncrementCounter("store_upsert_success", "sqlite")
	m.ObserveLatency("store_upsert", 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscribersUpserted.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscribersUpserted.WithLabelValues(metrics.ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WelcomeEmails.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("store_upsert_success", "sqlite")))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.NewMetrics("test")
	m.RecordWelcomeEmail(nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_welcome_emails_total")
}

func TestMetrics_ErrorCounters(t *testing.T) {
	m := metrics.NewMetrics("test")

	m.RecordBusinessError("invalid_email")
	m.RecordBusinessError("invalid_email")
	m.RecordTechnicalError("store", "critical")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BusinessErrors.WithLabelValues("invalid_email", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TechnicalErrors.WithLabelValues("store", "critical")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TechnicalErrors.WithLabelValues("mail", "error")))
}
