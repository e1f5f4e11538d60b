package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOp(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordOp("element.create", nil)
	m.RecordOp("element.create", nil)
	m.RecordOp("element.delete", errors.New("no such element"))

	expected := `
		# HELP planner_collab_operations_total Element operations received, by type and result
		# TYPE planner_collab_operations_total counter
		planner_collab_operations_total{result="error",type="element.delete"} 1
		planner_collab_operations_total{result="ok",type="element.create"} 2
	`
	if err := testutil.CollectAndCompare(m.CollabOps, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestActiveClients(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	if got := testutil.ToFloat64(m.ActiveClients); got != 1 {
		t.Errorf("active clients = %v, want 1", got)
	}
}

func TestRecordRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRequest("GET", "/api/plans", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/plans", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.HTTPDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOp("element.create", nil)
	m.RecordSave(nil)
	m.ClientConnected()
	m.ClientDisconnected()
	m.RecordRequest("GET", "/", 200, time.Second)
}
