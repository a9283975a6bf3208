package jobs

import (
	"context"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/clusterfolio/pkg/logger"
)

var dependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "clusterfolio",
	Subsystem: "scheduler",
	Name:      "dependency_up",
	Help:      "1 when the last health check of a dependency succeeded.",
}, []string{"dependency"})

// Pinger is anything with a connectivity check (DB, Redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckJob pings external dependencies and exports their status
type HealthCheckJob struct {
	deps   map[string]Pinger
	logger *logger.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(deps map[string]Pinger, log *logger.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		deps:   deps,
		logger: log,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "dependency_health"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *HealthCheckJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run pings every dependency; a failing dependency does not fail the job
// 실패는 게이지와 로그로만 보고 (재시도 대상 아님)
func (j *HealthCheckJob) Run(ctx context.Context) error {
	names := make([]string, 0, len(j.deps))
	for name := range j.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var down []string
	for _, name := range names {
		if err := j.deps[name].Ping(ctx); err != nil {
			dependencyUp.WithLabelValues(name).Set(0)
			down = append(down, name)
			j.logger.WithError(err).WithField("dependency", name).Warn("Dependency health check failed")
			continue
		}
		dependencyUp.WithLabelValues(name).Set(1)
	}

	if len(down) > 0 {
		j.logger.WithField("down", strings.Join(down, ",")).Warn("Dependencies unavailable")
	} else {
		j.logger.WithField("checked", len(names)).Debug("Dependencies healthy")
	}
	return nil
}
