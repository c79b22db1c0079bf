package stats

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// StatsCollector holds process-wide bridge counters.
type StatsCollector struct {
	StartTime        time.Time
	MessagesReceived uint64
	MessagesHandled  uint64
	MessagesDropped  uint64
	Published        uint64
	PublishDropped   uint64
	CommandsExecuted uint64
	CommandsFailed   uint64
	Reconnects       uint64
	lastUpdate       atomic.Int64
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector() *StatsCollector {
	s := &StatsCollector{StartTime: time.Now()}
	s.touch()
	return s
}

func (s *StatsCollector) touch() {
	s.lastUpdate.Store(time.Now().UnixNano())
}

func (s *StatsCollector) IncReceived() {
	atomic.AddUint64(&s.MessagesReceived, 1)
	s.touch()
}

func (s *StatsCollector) IncHandled() {
	atomic.AddUint64(&s.MessagesHandled, 1)
	s.touch()
}

func (s *StatsCollector) IncDropped() {
	atomic.AddUint64(&s.MessagesDropped, 1)
	s.touch()
}

func (s *StatsCollector) IncPublished() {
	atomic.AddUint64(&s.Published, 1)
	s.touch()
}

func (s *StatsCollector) IncPublishDropped() {
	atomic.AddUint64(&s.PublishDropped, 1)
	s.touch()
}

func (s *StatsCollector) IncCommand(ok bool) {
	if ok {
		atomic.AddUint64(&s.CommandsExecuted, 1)
	} else {
		atomic.AddUint64(&s.CommandsFailed, 1)
	}
	s.touch()
}

func (s *StatsCollector) IncReconnects() {
	atomic.AddUint64(&s.Reconnects, 1)
	s.touch()
}

// LastUpdate returns when any counter last changed.
func (s *StatsCollector) LastUpdate() time.Time {
	return time.Unix(0, s.lastUpdate.Load())
}

func (s *StatsCollector) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// GetStats returns current statistics
func (s *StatsCollector) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"uptime":            s.Uptime().String(),
		"messages_received": atomic.LoadUint64(&s.MessagesReceived),
		"messages_handled":  atomic.LoadUint64(&s.MessagesHandled),
		"messages_dropped":  atomic.LoadUint64(&s.MessagesDropped),
		"published":         atomic.LoadUint64(&s.Published),
		"publish_dropped":   atomic.LoadUint64(&s.PublishDropped),
		"commands_executed": atomic.LoadUint64(&s.CommandsExecuted),
		"commands_failed":   atomic.LoadUint64(&s.CommandsFailed),
		"reconnects":        atomic.LoadUint64(&s.Reconnects),
		"last_update":       s.LastUpdate(),
	}
}

// GetStatsJSON returns stats as JSON
func (s *StatsCollector) GetStatsJSON() ([]byte, error) {
	return json.Marshal(s.GetStats())
}

// CalculateRate returns handled messages per second since start.
func (s *StatsCollector) CalculateRate() float64 {
	uptime := s.Uptime().Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&s.MessagesHandled)) / uptime
}
