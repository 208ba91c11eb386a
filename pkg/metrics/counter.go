package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuldan/reqreply/pkg/messaging"
)

const DefaultNamespace = "reqreply"

// Counter records receiver dispatch statistics as Prometheus metrics.
type Counter struct {
	received *prometheus.CounterVec
	replied  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	failed   *prometheus.CounterVec
	dispatch *prometheus.HistogramVec
}

var _ messaging.Counter = (*Counter)(nil)

// NewCounter registers the receiver metrics on reg.
func NewCounter(reg prometheus.Registerer, namespace string) (*Counter, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Counter{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "messages_received_total",
			Help:      "Messages delivered to the receiver.",
		}, []string{"channel"}),
		replied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "replies_sent_total",
			Help:      "Replies published on the response queue.",
		}, []string{"channel"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped because their shape was not recognized.",
		}, []string{"channel"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "dispatch_failures_total",
			Help:      "Dispatch failures by operation.",
		}, []string{"channel", "operation"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "receiver",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching one message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}

	for _, collector := range []prometheus.Collector{c.received, c.replied, c.dropped, c.failed, c.dispatch} {
		if err := reg.Register(collector); err != nil {
			return nil, ErrRegisterFailed.WithCause(err)
		}
	}
	return c, nil
}

func (c *Counter) IncReceived(channel string) {
	c.received.WithLabelValues(channel).Inc()
}

func (c *Counter) IncReplied(channel string) {
	c.replied.WithLabelValues(channel).Inc()
}

func (c *Counter) IncDropped(channel string) {
	c.dropped.WithLabelValues(channel).Inc()
}

func (c *Counter) IncFailed(channel, operation string) {
	c.failed.WithLabelValues(channel, operation).Inc()
}

func (c *Counter) ObserveDispatch(channel string, elapsed time.Duration) {
	c.dispatch.WithLabelValues(channel).Observe(elapsed.Seconds())
}
