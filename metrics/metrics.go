package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceform_turns_total",
			Help: "Total number of conversation turns by outcome",
		},
		[]string{"outcome"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceform_collaborator_failures_total",
			Help: "Total number of failed collaborator calls by stage",
		},
		[]string{"stage"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voiceform_turn_duration_seconds",
			Help:    "Duration of one conversation turn in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"phase"},
	)

	OpenSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voiceform_open_sessions",
			Help: "Number of conversations waiting for another turn",
		},
	)
)

const (
	OutcomeComplete   = "complete"
	OutcomeIncomplete = "incomplete"
	OutcomeError      = "error"

	StageTranscribe = "transcribe"
	StageExtract    = "extract"
	StageDialogue   = "dialogue"
	StageStore      = "store"
)
