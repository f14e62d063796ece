package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Subsystem prefixes every collector this service registers.
const Subsystem = "payrecon"

// Business records domain counters. A nil *Business is valid and records nothing,
// which keeps services usable in tests without a registry.
type Business struct {
	process       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
}

// NewBusiness registers the domain collectors on reg. Collectors that are already
// registered are reused.
func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		process:       registerOrExisting(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
		notifications: registerOrExisting(reg, MetricsNotifications).(*prometheus.CounterVec),
		fetches:       registerOrExisting(reg, MetricsProcessorFetch).(*prometheus.CounterVec),
		deliveries:    registerOrExisting(reg, MetricsWebhookDeliveries).(*prometheus.CounterVec),
	}
}

func registerOrExisting(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, Subsystem)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (b *Business) ObserveProcess(typ, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.process.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func (b *Business) Notification(outcome string) {
	if b == nil {
		return
	}
	b.notifications.WithLabelValues(outcome).Inc()
}

func (b *Business) ProcessorFetch(code int) {
	if b == nil {
		return
	}
	b.fetches.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (b *Business) WebhookDelivery(status, event string) {
	if b == nil {
		return
	}
	b.deliveries.WithLabelValues(status, event).Inc()
}

func newDefaultBusiness() *Business {
	return NewBusiness(prometheus.DefaultRegisterer)
}

var Module = fx.Options(fx.Provide(newDefaultBusiness))
