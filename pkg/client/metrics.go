package client

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/igw/pkg/sse"
)

const metricsNamespace = "igw_client"

// Stream outcome label values.
const (
	OutcomeCompleted      = "completed"
	OutcomeTransportError = "transport_error"
	OutcomeCanceled       = "canceled"
	OutcomeClosed         = "closed"
	OutcomeError          = "error"
)

// Metrics holds the Prometheus collectors a Client records into. A nil
// *Metrics records nothing.
type Metrics struct {
	// Requests counts gateway calls by route, method and status code
	// ("error" when no response was received).
	Requests *prometheus.CounterVec

	// RequestDuration observes the time to response headers.
	RequestDuration *prometheus.HistogramVec

	// StreamEvents counts events decoded from streamed responses.
	StreamEvents prometheus.Counter

	// Streams counts finished streams by outcome.
	Streams *prometheus.CounterVec
}

// NewMetrics creates the client collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Inference gateway requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time until the inference gateway returned response headers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		StreamEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_events_total",
			Help:      "Server-sent events decoded from streamed generations.",
		}),
		Streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "streams_total",
			Help:      "Finished streamed generations by outcome.",
		}, []string{"outcome"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Requests, m.RequestDuration, m.StreamEvents, m.Streams} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRequest(route, method string, status int, err error, took time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if err == nil {
		code = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(route, method, code).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

func (m *Metrics) observeEvent() {
	if m == nil {
		return
	}
	m.StreamEvents.Inc()
}

func (m *Metrics) observeStream(outcome string) {
	if m == nil {
		return
	}
	m.Streams.WithLabelValues(outcome).Inc()
}

// streamOutcome maps the error that ended a stream to its outcome label.
func streamOutcome(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return OutcomeCompleted
	case errors.Is(err, sse.ErrTransport):
		return OutcomeTransportError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, sse.ErrDecoderClosed):
		return OutcomeClosed
	default:
		return OutcomeError
	}
}
