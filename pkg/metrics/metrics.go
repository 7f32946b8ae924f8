package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"derivative-service/ddd/domain/vo"
)

var (
	// Invocations counts pipeline invocations by final outcome status.
	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derivative_invocations_total",
		Help: "Pipeline invocations by outcome status",
	}, []string{"status"})

	// JobResults counts derivative job results by kind and status.
	JobResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derivative_job_results_total",
		Help: "Derivative job results by kind and status",
	}, []string{"kind", "status"})

	// JobDuration tracks encode+publish wall time per job kind.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "derivative_job_duration_seconds",
		Help:    "Derivative job duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2.0, 10), // 0.5s to ~4m
	}, []string{"kind"})

	// PublishedArtifacts counts artifacts that reached public visibility.
	PublishedArtifacts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derivative_published_artifacts_total",
		Help: "Artifacts published with public visibility",
	})
)

// ObserveJob 记录一次作业结果
func ObserveJob(r vo.DerivativeJobResult) {
	JobResults.WithLabelValues(string(r.Kind), string(r.Status)).Inc()
	JobDuration.WithLabelValues(string(r.Kind)).Observe(r.Duration.Seconds())
	if r.Status == vo.JobPublished {
		PublishedArtifacts.Inc()
	}
}

// ObserveInvocation 记录一次调用的最终状态
func ObserveInvocation(status string) {
	Invocations.WithLabelValues(status).Inc()
}
