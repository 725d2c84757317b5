package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.IncBatchCreated()
	m.AddTasksGenerated(3)
	m.IncReminderSent()
	m.IncReminderFailed("permanent_error")
	m.IncRetryScheduled()
	m.ObserveReminderSendDuration(42 * time.Millisecond)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body error = %v", err)
	}

	output := string(body)
	for _, metric := range []string{
		"bop_tracker_batches_created_total 1",
		"bop_tracker_tasks_generated_total 3",
		"bop_tracker_reminders_sent_total 1",
		`bop_tracker_reminders_failed_total{reason="permanent_error"} 1`,
		"bop_tracker_retry_scheduled_total 1",
	} {
		if !strings.Contains(output, metric) {
			t.Fatalf("metrics output missing %q", metric)
		}
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncBatchCreated()
	m.AddTasksGenerated(1)
	m.IncReminderSent()
	m.IncReminderFailed("x")
	m.IncRetryScheduled()
	m.IncWorkerInFlight()
	m.DecWorkerInFlight()
	m.ObserveReminderSendDuration(time.Second)

	if m.Handler() == nil {
		t.Fatal("nil metrics should still return a handler")
	}
}

func TestAddTasksGeneratedIgnoresNonPositive(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.AddTasksGenerated(0)
	m.AddTasksGenerated(-5)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "bop_tracker_tasks_generated_total 0") {
		t.Fatal("non-positive additions should leave the counter at zero")
	}
}
