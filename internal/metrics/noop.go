package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder, used when
// metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordHandshake(result string) {}

func (n *NoopMetrics) RecordProviderCall(endpoint string, duration time.Duration, success bool) {}

func (n *NoopMetrics) SetPendingRequestsCount(count int) {}

func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}

func (n *NoopMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {}

func (n *NoopMetrics) IncHTTPInFlight() {}

func (n *NoopMetrics) DecHTTPInFlight() {}
