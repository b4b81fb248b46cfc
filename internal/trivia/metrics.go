package trivia

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tanktrivia",
		Name:      "sessions_started_total",
		Help:      "Quiz sessions opened.",
	})
	metricAnswersScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tanktrivia",
		Name:      "answers_scored_total",
		Help:      "Finalized answers by outcome.",
	}, []string{"outcome"})
	metricDecayApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tanktrivia",
		Name:      "decay_applied_total",
		Help:      "Players hit by inactivity decay.",
	})
	metricRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tanktrivia",
		Name:      "play_rejections_total",
		Help:      "Rejected /play attempts by reason.",
	}, []string{"reason"})
)
