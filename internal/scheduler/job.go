package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression with seconds
	// 예: "0 30 18 * * 1-5" (평일 18:30)
	Schedule() string
}

// historyLimit 작업별 보관 실행 결과 수
const historyLimit = 100

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores job execution history (최근 historyLimit 건)
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result and drops the oldest beyond historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - historyLimit; over > 0 {
		h.Results = append(h.Results[:0:0], h.Results[over:]...)
	}
}

// Latest returns the latest n results (oldest first)
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	out := make([]JobResult, n)
	copy(out, h.Results[len(h.Results)-n:])
	return out
}

// Stats summarises the history
func (h *JobHistory) Stats(jobName, schedule string) JobStats {
	stats := JobStats{
		JobName:   jobName,
		Schedule:  schedule,
		TotalRuns: len(h.Results),
	}

	for i := range h.Results {
		r := &h.Results[i]
		if r.Success {
			stats.SuccessCount++
			stats.LastSuccess = &r.StartTime
		} else {
			stats.FailureCount++
			stats.LastFailure = &r.StartTime
		}
		stats.LastRun = &r.StartTime
	}

	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalRuns)
	}
	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
