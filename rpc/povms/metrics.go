package povms

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

const (
	metricSent      = "povms_messages_sent_total"
	metricReceived  = "povms_units_received_total"
	metricReplied   = "povms_replies_sent_total"
	metricTimeouts  = "povms_send_timeouts_total"
	metricUnhandled = "povms_unhandled_messages_total"
	metricQueueFull = "povms_queue_full_total"
	metricInvalid   = "povms_invalid_units_total"
	metricStale     = "povms_stale_replies_total"
)

// contextMetrics holds the counters of one context. A nil *contextMetrics
// counts nothing.
type contextMetrics struct {
	set  *metrics.Set
	name string
}

func newContextMetrics(name string) *contextMetrics {
	m := &contextMetrics{set: metrics.NewSet(), name: name}
	// create every counter up front so an export lists them with 0
	for _, metric := range []string{
		metricSent, metricReceived, metricReplied, metricTimeouts,
		metricUnhandled, metricQueueFull, metricInvalid, metricStale,
	} {
		m.counter(metric)
	}
	return m
}

func (m *contextMetrics) counter(metric string) *metrics.Counter {
	return m.set.GetOrCreateCounter(fmt.Sprintf("%s{context=%q}", metric, m.name))
}

func (m *contextMetrics) inc(metric string) {
	if m == nil {
		return
	}
	m.counter(metric).Inc()
}

func (m *contextMetrics) get(metric string) uint64 {
	if m == nil {
		return 0
	}
	return m.counter(metric).Get()
}

// WriteMetrics writes the counters of c in Prometheus text format. It writes
// nothing if the context was opened without metrics.
func (c *Context) WriteMetrics(w io.Writer) {
	if c.metrics == nil {
		return
	}
	c.metrics.set.WritePrometheus(w)
}
