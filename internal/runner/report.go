package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Thresholds are the pass/fail criteria for a finished run. A zero MaxP95
// disables the latency check.
type Thresholds struct {
	MinSuccessRate float64
	MaxP95         time.Duration
}

// Evaluate compares the closed metrics against the thresholds and returns an
// error describing every violated one.
func (t Thresholds) Evaluate(m *vegeta.Metrics) error {
	var violations []error
	if m.Success < t.MinSuccessRate {
		violations = append(violations,
			fmt.Errorf("success rate %.4f below minimum %.4f", m.Success, t.MinSuccessRate))
	}
	if t.MaxP95 > 0 && m.Latencies.P95 > t.MaxP95 {
		violations = append(violations,
			fmt.Errorf("p95 latency %s above maximum %s", m.Latencies.P95, t.MaxP95))
	}
	return errors.Join(violations...)
}

// LogSummary writes the aggregate figures of a finished run to the log.
func LogSummary(m *vegeta.Metrics) {
	event := log.Info().
		Uint64("requests", m.Requests).
		Float64("success_rate", m.Success).
		Dur("latency_mean", m.Latencies.Mean).
		Dur("latency_p95", m.Latencies.P95).
		Dur("latency_p99", m.Latencies.P99).
		Dur("latency_max", m.Latencies.Max).
		Float64("throughput", m.Throughput)
	for code, count := range m.StatusCodes {
		event = event.Int("status_"+code, count)
	}
	event.Msg("Load test summary")
}
