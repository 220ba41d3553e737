package business

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "file_movement"

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "transitions_total",
		Help:      "Committed file movements by action.",
	}, []string{"action"})

	transitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "transition_failures_total",
		Help:      "Rejected or failed file movements by action and error kind.",
	}, []string{"action", "kind"})

	notificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "notification_failures_total",
		Help:      "Holder change notifications that could not be dispatched.",
	})

	actorCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "actor_cache_lookups_total",
		Help:      "Actor cache lookups by result.",
	}, []string{"result"})
)
