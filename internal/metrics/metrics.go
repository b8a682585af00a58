package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Progression Metrics
var (
	QuestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameQuestsCompleted,
			Help: HelpTextQuestsCompleted,
		},
		[]string{LabelQuest},
	)

	DuplicateAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDuplicateAttempts,
			Help: HelpTextDuplicateAttempts,
		},
		[]string{LabelQuest},
	)

	XPAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameXPAwarded,
			Help: HelpTextXPAwarded,
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLevelUps,
			Help: HelpTextLevelUps,
		},
	)

	BadgesUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameBadgesUnlocked,
			Help: HelpTextBadgesUnlocked,
		},
		[]string{LabelBadge},
	)

	StreakLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameStreakLength,
			Help: HelpTextStreakLength,
		},
	)

	Resets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameResets,
			Help: HelpTextResets,
		},
	)
)

// Storage & Sync Metrics
var (
	LocalSaveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLocalSaveErrors,
			Help: HelpTextLocalSaveErrors,
		},
	)

	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSyncsTotal,
			Help: HelpTextSyncsTotal,
		},
		[]string{LabelDirection, LabelResult},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameSyncDuration,
			Help:    HelpTextSyncDuration,
			Buckets: SyncLatencyBuckets,
		},
		[]string{LabelDirection},
	)
)
