package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("test-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordNodeDecoded("test-a")
	RecordNodeDecoded("test-a")
	RecordUnknownBits("test-a", "flag")
	RecordRecordError("test-a")
	RecordBatchCompleted("test-a", 7)
	RecordMessage("test-a", "tap", "routed")
	RecordResponseFailure("test-a")
	RecordLinkConnect("test-a", true)

	if got := testutil.ToFloat64(nodesDecoded.WithLabelValues("test-a")); got != 2 {
		t.Fatalf("nodes decoded=%v", got)
	}
	if got := testutil.ToFloat64(registryNodes.WithLabelValues("test-a")); got != 7 {
		t.Fatalf("registry nodes=%v", got)
	}
	if got := testutil.ToFloat64(messagesRouted.WithLabelValues("test-a", "tap", "routed")); got != 1 {
		t.Fatalf("messages routed=%v", got)
	}
	SetRegistryNodes("test-a", 0)
	if got := testutil.ToFloat64(registryNodes.WithLabelValues("test-a")); got != 0 {
		t.Fatalf("registry nodes after reset=%v", got)
	}
}

func TestInstrumentLogsAndCounts(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Instrument("test-b", zerolog.New(&buf)))
	r.GET("/nodes/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nodes/9", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"route":"/nodes/:id"`) {
		t.Fatalf("unexpected log line %s", buf.String())
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("test-b", "GET", "/nodes/:id", "404")); got != 1 {
		t.Fatalf("http requests=%v", got)
	}
}
