package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_ObserveAction(t *testing.T) {
	c := New()

	c.ObserveAction("add", "applied", 201, 10*time.Millisecond)
	c.ObserveAction("add", "rejected", 200, time.Millisecond)
	c.ObserveAction("add", "applied", 201, time.Millisecond)
	c.ObserveAction("delete", "failed", 0, time.Millisecond)

	if got := testutil.ToFloat64(c.actions.WithLabelValues("add", "applied")); got != 2 {
		t.Fatalf("add/applied = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.actions.WithLabelValues("add", "rejected")); got != 1 {
		t.Fatalf("add/rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.responses.WithLabelValues("add", "201")); got != 2 {
		t.Fatalf("add/201 = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(c.responses); got != 2 {
		t.Fatalf("response series = %d, want 2 (failed call has no status)", got)
	}
}

func TestCollector_ObserveSnapshot(t *testing.T) {
	c := New()
	c.ObserveSnapshot(7, 3)
	if got := testutil.ToFloat64(c.users); got != 7 {
		t.Fatalf("users = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.version); got != 3 {
		t.Fatalf("version = %v, want 3", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveAction("add", "applied", 201, time.Second)
	c.ObserveSnapshot(1, 1)
	if c.Registry() != nil {
		t.Fatalf("nil collector Registry() != nil")
	}
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nil collector handler status = %d, want 404", rec.Code)
	}
}

func TestCollector_HandlerExposesSeries(t *testing.T) {
	c := New()
	c.ObserveAction("update", "applied", 200, time.Millisecond)

	server := httptest.NewServer(c.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `roster_actions_total{op="update",outcome="applied"} 1`) {
		t.Fatalf("metrics output missing actions series:\n%s", body)
	}
}
