package conversation

import "time"

// Metrics tracks request outcomes across the store's lifetime.
type Metrics struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	TotalLatency       time.Duration
	AverageLatency     time.Duration
}

// RecordOutcome folds one request outcome into the running metrics.
func (s *Store) RecordOutcome(latency time.Duration, success bool) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	s.metrics.TotalRequests++
	s.metrics.TotalLatency += latency
	if success {
		s.metrics.SuccessfulRequests++
	} else {
		s.metrics.FailedRequests++
	}
	s.metrics.AverageLatency = s.metrics.TotalLatency / time.Duration(s.metrics.TotalRequests)
}

// Metrics returns a copy of the current metrics.
func (s *Store) Metrics() Metrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}

// ResetMetrics zeroes the running metrics.
func (s *Store) ResetMetrics() {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics = Metrics{}
	s.logger.Info("metrics reset")
}
