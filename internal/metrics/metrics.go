package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifier results, labelled by the winning language ("en" for no evidence).
	Detections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_language_detections_total",
			Help: "Total number of input language classifications",
		},
		[]string{"language"},
	)

	LanguageSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_language_switches_total",
			Help: "Total number of active language changes",
		},
		[]string{"language", "source"}, // source: manual, auto, tray
	)

	BroadcastStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_broadcast_step_failures_total",
			Help: "Change-broadcast steps that failed or panicked",
		},
		[]string{"step"},
	)

	RefetchDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_refetch_dispatches_total",
			Help: "Debounced fetch callbacks that actually ran",
		},
		[]string{"component"},
	)

	TranslationMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krishimitra_translation_misses_total",
		Help: "Translation keys missing from every table",
	})

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_storage_errors_total",
			Help: "Durable key-value storage failures absorbed by the store",
		},
		[]string{"op"}, // read, write
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishimitra_provider_requests_total",
			Help: "Outbound provider calls",
		},
		[]string{"provider", "status"},
	)
)
