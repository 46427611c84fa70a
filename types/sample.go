package types

import "time"

// MetricKind identifies a utilization metric dimension
type MetricKind string

const (
	MetricCPU            MetricKind = "cpu_utilization"
	MetricNetworkIn      MetricKind = "network_in"
	MetricNetworkOut     MetricKind = "network_out"
	MetricDiskRead       MetricKind = "disk_read_bytes"
	MetricDiskWrite      MetricKind = "disk_write_bytes"
	MetricConnections    MetricKind = "database_connections"
	MetricReadIOPS       MetricKind = "read_iops"
	MetricWriteIOPS      MetricKind = "write_iops"
	MetricFreeableMemory MetricKind = "freeable_memory"
)

// EC2Metrics are the metric kinds collected per EC2 instance
var EC2Metrics = []MetricKind{
	MetricCPU,
	MetricNetworkIn,
	MetricNetworkOut,
	MetricDiskRead,
	MetricDiskWrite,
}

// RDSMetrics are the metric kinds collected per RDS instance
var RDSMetrics = []MetricKind{
	MetricCPU,
	MetricConnections,
	MetricReadIOPS,
	MetricWriteIOPS,
	MetricFreeableMemory,
}

// MetricSample is a single datapoint from the telemetry collector.
// Immutable once produced.
type MetricSample struct {
	Timestamp  time.Time  `json:"timestamp"`
	Kind       MetricKind `json:"kind"`
	Value      float64    `json:"value"`
	ResourceID string     `json:"resource_id"`
}

// Window is the lookback range utilization is measured over
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LookbackWindow builds a window ending now
func LookbackWindow(days int, now time.Time) Window {
	return Window{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// Duration returns the window length
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
