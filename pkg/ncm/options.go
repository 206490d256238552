package ncm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Option configures optional client settings.
type Option func(*options)

type options struct {
	retries            int
	retryBackoffFactor float64
	retryOn            []int
	timeout            time.Duration
	v2BaseURL          string
	v3BaseURL          string

	logger    log.FieldLogger
	logEvents bool

	tracerProvider trace.TracerProvider
	registerer     prometheus.Registerer
	metrics        *clientMetrics

	rateLimit rate.Limit
	rateBurst int
	breaker   *gobreaker.Settings
}

func defaultOptions() options {
	return options{
		retries:            DefaultRetries,
		retryBackoffFactor: DefaultRetryBackoffFactor,
		retryOn:            append([]int(nil), DefaultRetryOn...),
		timeout:            defaultTimeout,
		logger:             log.WithField("component", "ncm"),
		logEvents:          true,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil && o.registerer != nil {
		o.metrics = newClientMetrics(o.registerer)
	}
	return o
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(o *options) {
		o.retries = n
	}
}

// WithRetryBackoffFactor sets the backoff factor: retry n waits
// factor * 2^(n-1) seconds.
func WithRetryBackoffFactor(f float64) Option {
	return func(o *options) {
		o.retryBackoffFactor = f
	}
}

// WithRetryOn replaces the set of HTTP statuses that trigger a retry.
func WithRetryOn(codes ...int) Option {
	return func(o *options) {
		o.retryOn = append([]int(nil), codes...)
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithV2BaseURL overrides the v2 endpoint (and CP_BASE_URL).
func WithV2BaseURL(u string) Option {
	return func(o *options) {
		o.v2BaseURL = u
	}
}

// WithV3BaseURL overrides the v3 endpoint (and CP_BASE_URL_V3).
func WithV3BaseURL(u string) Option {
	return func(o *options) {
		o.v3BaseURL = u
	}
}

// WithLogger sets the logger used for call outcomes and retries.
func WithLogger(l log.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLogEvents toggles the per-call outcome log line.
func WithLogEvents(enabled bool) Option {
	return func(o *options) {
		o.logEvents = enabled
	}
}

// WithTracerProvider sets the TracerProvider for request spans.
// If not provided, tracing operations use a noop provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMetricsRegisterer registers request counters and latency histograms
// on reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given
// burst. NCM throttles accounts that exceed their request quota.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.rateLimit = 0
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.rateLimit = rate.Limit(rps)
		o.rateBurst = burst
	}
}

// WithCircuitBreaker opens the circuit after maxFailures consecutive
// connection failures or 5xx responses and probes again after openTimeout.
func WithCircuitBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(o *options) {
		if maxFailures == 0 {
			o.breaker = nil
			return
		}
		o.breaker = &gobreaker.Settings{
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}
	}
}
