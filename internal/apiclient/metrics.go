package apiclient

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of the call counters.
type Metrics struct {
	Calls         int64
	Errors        int64
	Timeouts      int64
	NetworkErrors int64
	Unauthorized  int64
	ServerErrors  int64
	DecodeErrors  int64
	Latency       time.Duration // Total
}

type counters struct {
	calls         atomic.Int64
	errors        atomic.Int64
	timeouts      atomic.Int64
	networkErrors atomic.Int64
	unauthorized  atomic.Int64
	serverErrors  atomic.Int64
	decodeErrors  atomic.Int64
	latency       atomic.Int64
}

var globalMetrics counters

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		Calls:         globalMetrics.calls.Load(),
		Errors:        globalMetrics.errors.Load(),
		Timeouts:      globalMetrics.timeouts.Load(),
		NetworkErrors: globalMetrics.networkErrors.Load(),
		Unauthorized:  globalMetrics.unauthorized.Load(),
		ServerErrors:  globalMetrics.serverErrors.Load(),
		DecodeErrors:  globalMetrics.decodeErrors.Load(),
		Latency:       time.Duration(globalMetrics.latency.Load()),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	for _, c := range []*atomic.Int64{
		&globalMetrics.calls, &globalMetrics.errors, &globalMetrics.timeouts,
		&globalMetrics.networkErrors, &globalMetrics.unauthorized,
		&globalMetrics.serverErrors, &globalMetrics.decodeErrors, &globalMetrics.latency,
	} {
		c.Store(0)
	}
}

// RecordCall is exported for the mock layer, which counts its calls the
// same way the live client does.
func RecordCall(duration time.Duration, err error) {
	globalMetrics.calls.Add(1)
	globalMetrics.latency.Add(duration.Nanoseconds())
	if err == nil {
		return
	}
	globalMetrics.errors.Add(1)
	switch KindOf(err) {
	case KindTimeout:
		globalMetrics.timeouts.Add(1)
	case KindNetwork:
		globalMetrics.networkErrors.Add(1)
	case KindUnauthorized:
		globalMetrics.unauthorized.Add(1)
	case KindServer:
		globalMetrics.serverErrors.Add(1)
	case KindDecode:
		globalMetrics.decodeErrors.Add(1)
	}
}

// AverageLatency returns the mean call latency.
func (m Metrics) AverageLatency() time.Duration {
	if m.Calls == 0 {
		return 0
	}
	return m.Latency / time.Duration(m.Calls)
}

// ErrorRate returns the error rate as a percentage
func (m Metrics) ErrorRate() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Calls) * 100
}
