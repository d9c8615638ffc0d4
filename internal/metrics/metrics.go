// Package metrics объявляет prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "advileads"

var (
	NotificationsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_added_total",
		Help:      "Notifications added to user stores, by type.",
	}, []string{"type"})

	NotificationReadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_read_failures_total",
		Help:      "Notification lists that could not be read or decoded and were replaced by an empty list.",
	})

	TrialChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trial_checks_total",
		Help:      "Trial checks run by session watchers, by outcome.",
	}, []string{"outcome"})

	TrialSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trial_sessions_active",
		Help:      "Authenticated sessions with a running trial watcher.",
	})

	TrialsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trials_expired_total",
		Help:      "Trials moved to expired by the expiry sweep.",
	})

	ForumEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forum_events_total",
		Help:      "Forum events consumed from the broker, by result.",
	}, []string{"result"})
)

// Исходы проверки триала.
const (
	OutcomeIdle     = "idle"
	OutcomeNotified = "notified"
	OutcomeWelcome  = "welcome"
	OutcomeError    = "error"
)
