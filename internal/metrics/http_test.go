package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// recordingMetrics captures recorder calls for assertions.
type recordingMetrics struct {
	NoopMetrics

	method   string
	path     string
	status   string
	inFlight int
}

func (r *recordingMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.method = method
	r.path = path
	r.status = status
}

func (r *recordingMetrics) IncHTTPInFlight() { r.inFlight++ }
func (r *recordingMetrics) DecHTTPInFlight() { r.inFlight-- }

func TestHTTPMetricsMiddleware_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recordingMetrics{}

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(rec))
	router.GET("/auth/login", func(c *gin.Context) {
		c.Status(http.StatusFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/login?code=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/auth/login", rec.path)
	assert.Equal(t, "302", rec.status)
	assert.Equal(t, 0, rec.inFlight, "in-flight gauge should return to zero")
}

func TestHTTPMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recordingMetrics{}

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(rec))

	req := httptest.NewRequest(http.MethodGet, "/nosuchroute", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "unmatched", rec.path)
	assert.Equal(t, "404", rec.status)
}
