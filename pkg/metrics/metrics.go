package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this module
var Registry = prometheus.NewRegistry()

var (
	applicationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_transitions_total",
			Help: "Application status transitions by trigger and resulting status.",
		},
		[]string{"trigger", "status"},
	)

	candidatesScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "match_candidates_scored_total",
		Help: "Volunteer/opportunity pairs scored by the match finder.",
	})

	systemMatchesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "system_matches_created_total",
		Help: "Applications proposed by system matching.",
	})

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications or emails that could not be delivered.",
		},
		[]string{"channel"},
	)
)

func init() {
	Registry.MustRegister(applicationTransitions, candidatesScored, systemMatchesCreated, notificationFailures)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordTransition counts an application moving to status because of trigger
func RecordTransition(trigger, status string) {
	applicationTransitions.WithLabelValues(trigger, status).Inc()
}

// RecordCandidatesScored counts pairs run through the score model
func RecordCandidatesScored(n int) {
	candidatesScored.Add(float64(n))
}

// RecordSystemMatches counts proposals created by system matching
func RecordSystemMatches(n int) {
	systemMatchesCreated.Add(float64(n))
}

// RecordNotificationFailure counts a failed delivery on channel ("in_app" or "email")
func RecordNotificationFailure(channel string) {
	notificationFailures.WithLabelValues(channel).Inc()
}
