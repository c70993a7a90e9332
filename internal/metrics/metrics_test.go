package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.SessionStarted()
	m.SessionCompleted()
	m.SessionCancelled()
	m.SessionFailed()
	m.SessionEvicted()
	m.SessionRemoved()
	m.TurnEvaluated()
	m.FollowupAsked()
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.SessionStarted()
	m.SessionStarted()
	m.SessionCompleted()
	m.TurnEvaluated()
	m.FollowupAsked()
	m.SessionRemoved()

	if got := testutil.ToFloat64(m.sessionsStarted); got != 2 {
		t.Fatalf("expected 2 started sessions, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsCompleted); got != 1 {
		t.Fatalf("expected 1 completed session, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.turnsEvaluated); got != 1 {
		t.Fatalf("expected 1 evaluated turn, got %v", got)
	}
	if got := testutil.ToFloat64(m.followupsAsked); got != 1 {
		t.Fatalf("expected 1 follow-up, got %v", got)
	}
}
