// Package metrics exposes prometheus instruments for the session engine. A
// nil *Metrics is valid and records nothing, so wiring stays optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsCancelled prometheus.Counter
	sessionsFailed    prometheus.Counter
	sessionsEvicted   prometheus.Counter
	activeSessions    prometheus.Gauge
	turnsEvaluated    prometheus.Counter
	followupsAsked    prometheus.Counter
}

// New registers the interview instruments with reg. A nil registerer falls
// back to the default prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_sessions_started_total",
			Help: "Number of interview sessions created.",
		}),
		sessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_sessions_completed_total",
			Help: "Number of interview sessions that reached the done phase.",
		}),
		sessionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_sessions_cancelled_total",
			Help: "Number of interview sessions cancelled before completion.",
		}),
		sessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_sessions_failed_total",
			Help: "Number of interview sessions terminated by an invariant violation.",
		}),
		sessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_sessions_evicted_total",
			Help: "Number of idle interview sessions evicted.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "interviewer_active_sessions",
			Help: "Number of interview sessions currently registered.",
		}),
		turnsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_turns_evaluated_total",
			Help: "Number of answers evaluated across all sessions.",
		}),
		followupsAsked: factory.NewCounter(prometheus.CounterOpts{
			Name: "interviewer_followups_asked_total",
			Help: "Number of follow-up prompts emitted across all sessions.",
		}),
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}

func (m *Metrics) SessionCancelled() {
	if m == nil {
		return
	}
	m.sessionsCancelled.Inc()
}

func (m *Metrics) SessionFailed() {
	if m == nil {
		return
	}
	m.sessionsFailed.Inc()
}

func (m *Metrics) SessionEvicted() {
	if m == nil {
		return
	}
	m.sessionsEvicted.Inc()
}

func (m *Metrics) SessionRemoved() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) TurnEvaluated() {
	if m == nil {
		return
	}
	m.turnsEvaluated.Inc()
}

func (m *Metrics) FollowupAsked() {
	if m == nil {
		return
	}
	m.followupsAsked.Inc()
}
