package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// HTTP метрики (общие для координатора и архиватора).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coldcluster_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coldcluster_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Метрики координатора.
var (
	CheckInsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_checkins_total",
		Help: "Total worker check-ins",
	})

	WorkersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_workers_registered_total",
		Help: "Workers seen for the first time in the current search",
	})

	AssembliesAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_assemblies_assigned_total",
		Help: "Assemblies handed out to workers (repeats included)",
	})

	AssembliesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_assemblies_completed_total",
		Help: "Completion reports accepted for the first time",
	})

	SolutionsFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_solutions_found_total",
		Help: "Solutions reported by workers",
	})

	UnsolvedAssemblies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coldcluster_unsolved_assemblies",
		Help: "Assemblies not yet completed",
	})

	SearchSpaceTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coldcluster_search_space_total",
		Help: "Size of the current search space",
	})

	ProgramsRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coldcluster_programs_run",
		Help: "Programs run in the current search",
	})

	RunRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coldcluster_run_rate",
		Help: "Programs per second summed over active workers",
	})

	Workers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coldcluster_workers",
		Help: "Workers by liveness",
	}, []string{"liveness"})

	ClusterStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coldcluster_cluster_status",
		Help: "1 for the current cluster status, 0 otherwise",
	}, []string{"status"})

	JournalDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_journal_dropped_total",
		Help: "Events dropped because the journal buffer was full",
	})

	JournalPublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coldcluster_journal_publish_errors_total",
		Help: "Events that failed to publish",
	})
)

// Метрики архиватора.
var (
	ArchiveEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coldcluster_archive_events_total",
		Help: "Events consumed by the archiver by type and result",
	}, []string{"type", "result"})
)

// SetClusterStatus выставляет 1 для текущего статуса и 0 для остальных.
func SetClusterStatus(current domain.ClusterStatus) {
	for _, s := range []domain.ClusterStatus{domain.StatusStopped, domain.StatusRunning, domain.StatusPaused} {
		v := 0.0
		if s == current {
			v = 1
		}
		ClusterStatus.WithLabelValues(string(s)).Set(v)
	}
}

// ObserveSnapshot обновляет gauges по срезу прогресса.
func ObserveSnapshot(snap domain.SnapshotPayload) {
	SetClusterStatus(snap.Status)
	SearchSpaceTotal.Set(float64(snap.Total))
	UnsolvedAssemblies.Set(float64(snap.Unsolved))
	ProgramsRun.Set(float64(snap.ProgramsRun))
	RunRate.Set(float64(snap.RunRate))
	Workers.WithLabelValues(string(domain.LivenessActive)).Set(float64(snap.WorkersActive))
	Workers.WithLabelValues(string(domain.LivenessPaused)).Set(float64(snap.WorkersPaused))
	Workers.WithLabelValues(string(domain.LivenessInactive)).Set(float64(snap.WorkersInactive))
}
