package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/events/:eventId", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/events/:eventId", "404"))
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/events/42", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/events/:eventId", "404"))

	if after-before != 3 {
		t.Errorf("Expected 3 requests counted, got %v", after-before)
	}
}

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(AttendanceTransitions.WithLabelValues(TransitionRequested))
	RecordTransition(TransitionRequested)
	if got := testutil.ToFloat64(AttendanceTransitions.WithLabelValues(TransitionRequested)); got-before != 1 {
		t.Errorf("Expected transition counter to increase by 1, got %v", got-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	RecordTransition(TransitionRemoved)

	req, _ := http.NewRequest("GET", "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "socialeyes_attendance_transitions_total") {
		t.Error("Expected attendance transitions in metrics output")
	}
}
