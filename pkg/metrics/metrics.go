package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets are in milliseconds. They span fast API answers up to a processor
// lookup that exhausts its 404 retries and a slow subscriber timing out.
var LatencyBuckets = []float64{
	5, 10, 25, 50, 100, 250, 500,
	1000, 2000, 4000, 6000, 8000, 10000,
	15000, 20000, 30000, 60000,
}

// Collector kinds understood by NewMetric.
const (
	TypeCounterVec   = "counter_vec"
	TypeHistogramVec = "histogram_vec"
	TypeSummaryVec   = "summary_vec"
)

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	ID          string
	Name        string
	Description string
	Type        string
	Args        []string
}

// NewMetric builds the collector for m.Type. Unknown types yield nil.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case TypeCounterVec:
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args)
	case TypeHistogramVec:
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
			Buckets:   LatencyBuckets,
		}, m.Args)
	case TypeSummaryVec:
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args)
	}
	return nil
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        TypeHistogramVec,
	Args:        []string{"type", "subtype"},
}

var MetricsNotifications = &Metric{
	ID:          "notifications",
	Name:        "notifications_total",
	Description: "Payment notifications handled, partitioned by outcome.",
	Type:        TypeCounterVec,
	Args:        []string{"outcome"},
}

var MetricsProcessorFetch = &Metric{
	ID:          "processorFetch",
	Name:        "processor_fetch_total",
	Description: "Payment processor status lookups, partitioned by HTTP status code.",
	Type:        TypeCounterVec,
	Args:        []string{"code"},
}

var MetricsWebhookDeliveries = &Metric{
	ID:          "webhookDeliveries",
	Name:        "webhook_deliveries_total",
	Description: "Outbound webhook delivery attempts, partitioned by result and event.",
	Type:        TypeCounterVec,
	Args:        []string{"status", "event"},
}
