package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rroethle7474/timehealer-api/pkg/types"
)

type Metrics struct {
	Operations     int                        `json:"operations"`
	TotalQueries   int                        `json:"total_queries"`
	TotalPosts     int                        `json:"total_posts"`
	TotalErrors    int                        `json:"total_errors"`
	LastRun        time.Time                  `json:"last_run"`
	AverageRunTime time.Duration              `json:"average_run_time"`
	ErrorRate      float64                    `json:"error_rate"`
	ByOperation    map[string]OperationMetric `json:"by_operation"`
}

type OperationMetric struct {
	Runs    int       `json:"runs"`
	Posts   int       `json:"posts"`
	Errors  int       `json:"errors"`
	LastRun time.Time `json:"last_run"`
}

// Monitor tracks scraping operation metrics in memory. The service keeps no
// persisted state, so counters reset with the process.
type Monitor struct {
	mu      sync.Mutex
	metrics Metrics
	logger  *logrus.Logger
}

func NewMonitor(logger *logrus.Logger) *Monitor {
	return &Monitor{
		metrics: Metrics{ByOperation: make(map[string]OperationMetric)},
		logger:  logger,
	}
}

// RecordOperation folds one finished operation into the running totals.
// queries counts every query attempted, errors the ones that failed.
func (m *Monitor) RecordOperation(op types.OperationType, queries, posts, errors int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.Operations++
	m.metrics.TotalQueries += queries
	m.metrics.TotalPosts += posts
	m.metrics.TotalErrors += errors
	m.metrics.LastRun = time.Now()

	if m.metrics.Operations > 1 {
		m.metrics.AverageRunTime = (m.metrics.AverageRunTime + duration) / 2
	} else {
		m.metrics.AverageRunTime = duration
	}

	if m.metrics.TotalQueries > 0 {
		m.metrics.ErrorRate = float64(m.metrics.TotalErrors) / float64(m.metrics.TotalQueries) * 100
	}

	opMetric := m.metrics.ByOperation[string(op)]
	opMetric.Runs++
	opMetric.Posts += posts
	opMetric.Errors += errors
	opMetric.LastRun = m.metrics.LastRun
	m.metrics.ByOperation[string(op)] = opMetric

	m.logger.Infof("Recorded %s operation: %d queries, %d posts, %d errors, %v",
		op, queries, posts, errors, duration)
}

// Snapshot returns a copy of the current metrics.
func (m *Monitor) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.metrics
	out.ByOperation = make(map[string]OperationMetric, len(m.metrics.ByOperation))
	for k, v := range m.metrics.ByOperation {
		out.ByOperation[k] = v
	}
	return out
}

func (m *Monitor) HealthStatus() map[string]interface{} {
	snap := m.Snapshot()
	status := map[string]interface{}{
		"operations":      snap.Operations,
		"total_queries":   snap.TotalQueries,
		"total_posts":     snap.TotalPosts,
		"total_errors":    snap.TotalErrors,
		"average_runtime": snap.AverageRunTime.String(),
		"error_rate":      fmt.Sprintf("%.2f%%", snap.ErrorRate),
	}
	if !snap.LastRun.IsZero() {
		status["last_run"] = snap.LastRun.Format(time.RFC3339)
	}
	return status
}
