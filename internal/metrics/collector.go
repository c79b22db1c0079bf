package metrics

import (
	"sync"
	"time"
)

// StatsSource is sampled periodically by the collector.
type StatsSource interface {
	Uptime() time.Duration
	CalculateRate() float64
}

// MetricsCollector copies derived runtime figures into gauges on a fixed
// interval.
type MetricsCollector struct {
	metrics  *Metrics
	source   StatsSource
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewMetricsCollector(m *Metrics, source StatsSource, interval time.Duration) *MetricsCollector {
	return &MetricsCollector{
		metrics:  m,
		source:   source,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (c *MetricsCollector) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *MetricsCollector) Stop() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *MetricsCollector) collect() {
	c.metrics.SetUptime(c.source.Uptime().Seconds())
	c.metrics.SetDispatchRate(c.source.CalculateRate())
}
