package executor

import (
	"context"

	"ha-host-bridge/internal/metrics"
	"ha-host-bridge/internal/stats"
)

type instrumented struct {
	next    Executor
	metrics *metrics.Metrics
	stats   *stats.StatsCollector
}

// WithInstrumentation counts every command outcome. Either sink may be nil.
func WithInstrumentation(next Executor, m *metrics.Metrics, s *stats.StatsCollector) Executor {
	return &instrumented{next: next, metrics: m, stats: s}
}

func (i *instrumented) Run(ctx context.Context, command string) ([]byte, error) {
	output, err := i.next.Run(ctx, command)

	status := "success"
	if err != nil {
		status = "error"
	}
	if i.metrics != nil {
		i.metrics.IncCommandsTotal(status)
	}
	if i.stats != nil {
		i.stats.IncCommand(err == nil)
	}
	return output, err
}
