package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
)

const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// Observer records async validation activity in Prometheus. It implements
// asyncvalidate.Observer:
//
//	obs, err := metrics.New(prometheus.DefaultRegisterer, "myapp")
//	ctrl := asyncvalidate.New(asyncvalidate.WithObserver(obs))
type Observer struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var _ asyncvalidate.Observer = (*Observer)(nil)

// New creates the collectors under namespace (default "validkit") and
// registers them with reg. Collectors already registered by an earlier
// Observer on the same registry are reused.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	if namespace == "" {
		namespace = "validkit"
	}
	o := &Observer{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async_validation",
			Name:      "attempts_total",
			Help:      "Validator invocations made by the async controller, including retries.",
		}, []string{"field"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async_validation",
			Name:      "retries_total",
			Help:      "Retry attempts made after a retryable fault.",
		}, []string{"field"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async_validation",
			Name:      "results_total",
			Help:      "Settled async validations by outcome.",
		}, []string{"field", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "async_validation",
			Name:      "duration_seconds",
			Help:      "Wall time of async validations including retries and backoff.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"field", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "async_validation",
			Name:      "in_flight",
			Help:      "Async validations currently running.",
		}),
	}

	var err error
	o.attempts, err = register(reg, o.attempts)
	if err != nil {
		return nil, err
	}
	if o.retries, err = register(reg, o.retries); err != nil {
		return nil, err
	}
	if o.results, err = register(reg, o.results); err != nil {
		return nil, err
	}
	if o.duration, err = register(reg, o.duration); err != nil {
		return nil, err
	}
	if o.inFlight, err = register(reg, o.inFlight); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveAttempt is called with a 1-based attempt number.
func (o *Observer) ObserveAttempt(fieldID string, attempt int) {
	o.attempts.WithLabelValues(fieldID).Inc()
	if attempt == 1 {
		o.inFlight.Inc()
		return
	}
	o.retries.WithLabelValues(fieldID).Inc()
}

// ObserveResult records the outcome and duration of a finished run.
func (o *Observer) ObserveResult(fieldID string, res asyncvalidate.Result) {
	outcome := Outcome(res)
	o.results.WithLabelValues(fieldID, outcome).Inc()
	o.duration.WithLabelValues(fieldID, outcome).Observe(res.Duration.Seconds())
	o.inFlight.Dec()
}

// Outcome names the label value recorded for res.
func Outcome(res asyncvalidate.Result) string {
	switch {
	case res.Cancelled:
		return OutcomeCancelled
	case res.TimedOut:
		return OutcomeTimeout
	case !res.Success:
		return OutcomeFailed
	default:
		return OutcomeSuccess
	}
}
