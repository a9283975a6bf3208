package portfolio

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/clusterfolio/internal/contracts"
)

var (
	// constructRuns counts Construct calls by outcome (success, invalid, error)
	constructRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clusterfolio",
		Subsystem: "portfolio",
		Name:      "construct_total",
		Help:      "Portfolio construction runs by outcome",
	}, []string{"outcome"})

	// constructRejections counts precondition failures by error kind
	constructRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clusterfolio",
		Subsystem: "portfolio",
		Name:      "rejections_total",
		Help:      "Rejected construction runs by error kind",
	}, []string{"kind"})

	// stageDuration measures each pipeline stage
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clusterfolio",
		Subsystem: "portfolio",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"stage"})

	// communitiesFound tracks the number of detected communities per run
	communitiesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clusterfolio",
		Subsystem: "portfolio",
		Name:      "communities",
		Help:      "Communities detected per successful run",
		Buckets:   prometheus.LinearBuckets(1, 2, 10),
	})
)

func observeStage(stage contracts.Stage, start time.Time) {
	stageDuration.WithLabelValues(stage.ShortName()).Observe(time.Since(start).Seconds())
}

func recordOutcome(err error, communities int) {
	if err == nil {
		constructRuns.WithLabelValues("success").Inc()
		communitiesFound.Observe(float64(communities))
		return
	}
	if kind := contracts.KindOf(err); kind != "" {
		constructRuns.WithLabelValues("invalid").Inc()
		constructRejections.WithLabelValues(string(kind)).Inc()
		return
	}
	constructRuns.WithLabelValues("error").Inc()
}
