package ncm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fjacquet/ncm_client/internal/telemetry"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Production endpoints and the environment variables that override them.
const (
	DefaultV2BaseURL = "https://www.cradlepointecm.com/api/v2"
	DefaultV3BaseURL = "https://api.cradlepointecm.com/api/v3"
	EnvV2BaseURL     = "CP_BASE_URL"
	EnvV3BaseURL     = "CP_BASE_URL_V3"
)

const (
	// DefaultRetries is the number of retries for transient failures.
	DefaultRetries = 5
	// DefaultRetryBackoffFactor scales the exponential backoff in seconds.
	DefaultRetryBackoffFactor = 2.0

	defaultTimeout   = 1 * time.Minute
	maxRedirects     = 3
	retryMinWaitTime = 1 * time.Millisecond
	retryMaxWaitTime = 2 * time.Minute

	contentTypeJSON    = "application/json"
	contentTypeJSONAPI = "application/vnd.api+json"
	contentTypeAtomic  = `application/vnd.api+json;ext="https://jsonapi.org/ext/atomic"`

	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"

	apiV2 = "v2"
	apiV3 = "v3"
)

// DefaultRetryOn lists the statuses retried by default: request timeout,
// service unavailable and gateway timeout.
var DefaultRetryOn = []int{http.StatusRequestTimeout, http.StatusServiceUnavailable, http.StatusGatewayTimeout}

// errBreakerServerFailure marks 5xx responses as failures for the circuit
// breaker without turning them into transport errors.
var errBreakerServerFailure = errors.New("server failure")

// idempotentMethods are the only methods retried on a transient failure.
var idempotentMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// session is one long-lived HTTP session bound to a single API generation
// and base URL.
type session struct {
	version   string
	baseURL   string
	client    *resty.Client
	retryOn   map[int]bool
	log       log.FieldLogger
	logEvents bool
	tracing   *TracerWrapper
	metrics   *clientMetrics
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*resty.Response]

	mu      sync.RWMutex
	headers map[string]string
}

// resolveBaseURL applies the precedence explicit option > environment >
// production default.
func resolveBaseURL(explicit, envVar, fallback string) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	if v := os.Getenv(envVar); v != "" {
		return strings.TrimRight(v, "/")
	}
	return fallback
}

// newSession builds the resty client with the retry policy mounted.
func newSession(version, baseURL string, o options) *session {
	s := &session{
		version:   version,
		baseURL:   baseURL,
		retryOn:   make(map[int]bool, len(o.retryOn)),
		log:       o.logger.WithField("api", version),
		logEvents: o.logEvents,
		tracing:   NewTracerWrapper(o.tracerProvider, "ncm-client/"+version),
		metrics:   o.metrics,
		headers:   map[string]string{},
	}
	for _, code := range o.retryOn {
		s.retryOn[code] = true
	}

	factor := o.retryBackoffFactor
	s.client = resty.New().
		SetTimeout(o.timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetRetryCount(o.retries).
		SetRetryWaitTime(retryMinWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			attempt := 1
			if r != nil && r.Request != nil && r.Request.Attempt > 0 {
				attempt = r.Request.Attempt
			}
			return backoffDuration(factor, attempt), nil
		}).
		AddRetryCondition(s.shouldRetry).
		AddRetryHook(func(r *resty.Response, err error) {
			status := 0
			if r != nil {
				status = r.StatusCode()
			}
			s.log.WithFields(log.Fields{"status": status, "error": err}).Debug("Retrying NCM request")
		})

	if o.rateLimit > 0 {
		s.limiter = rate.NewLimiter(o.rateLimit, o.rateBurst)
	}
	if o.breaker != nil {
		st := *o.breaker
		st.Name = "ncm-" + version
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			s.log.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("Circuit breaker state change")
		}
		s.breaker = gobreaker.NewCircuitBreaker[*resty.Response](st)
	}
	return s
}

// backoffDuration is factor * 2^(attempt-1) seconds.
func backoffDuration(factor float64, attempt int) time.Duration {
	if factor <= 0 || attempt < 1 {
		return 0
	}
	seconds := factor * math.Pow(2, float64(attempt-1))
	return time.Duration(seconds * float64(time.Second))
}

// shouldRetry retries idempotent requests on connection errors and on the
// configured transient statuses. Other 4xx are caller errors and are never
// retried.
func (s *session) shouldRetry(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return err != nil
	}
	if !idempotentMethods[r.Request.Method] {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return s.retryOn[r.StatusCode()]
}

// setHeaders replaces the credential headers. Each request copies them
// once through headerSnapshot.
func (s *session) setHeaders(h map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = make(map[string]string, len(h))
	for k, v := range h {
		s.headers[k] = v
	}
}

func (s *session) headerSnapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

// resolve turns an API path into an absolute URL. Absolute URLs (pagination
// links) are returned unchanged.
func (s *session) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// request describes one HTTP exchange.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	contentType string
}

// do performs the request. Connection-level failures come back as
// *TransportError; any HTTP status is returned as a response for the
// interpreter to judge.
func (s *session) do(ctx context.Context, req request) (*resty.Response, error) {
	target := s.resolve(req.path)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.method, URL: target, Err: err}
		}
	}

	ctx, span := s.tracing.StartSpan(ctx, "ncm."+s.version+".request", trace.SpanKindClient)
	defer span.End()

	headers := s.headerSnapshot()
	if req.contentType != "" {
		headers[headerContentType] = req.contentType
	}
	headers = injectTraceContext(ctx, headers)

	r := s.client.R().
		SetContext(ctx).
		SetHeaders(headers)
	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}
	var requestSize int64
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("ncm: encode %s body: %w", req.path, err)
		}
		requestSize = int64(len(payload))
		r.SetBody(payload)
	}

	start := time.Now()
	resp, err := s.execute(r, req.method, target)
	duration := time.Since(start)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	s.metrics.observe(s.version, req.method, status, duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.WithFields(log.Fields{"method": req.method, "url": target}).Errorf("NCM request failed: %v", err)
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrHTTPMethod, req.method),
		attribute.String(telemetry.AttrHTTPURL, target),
		attribute.Int(telemetry.AttrHTTPStatusCode, status),
		attribute.Int64(telemetry.AttrHTTPRequestContentLength, requestSize),
		attribute.Int64(telemetry.AttrHTTPResponseContentLength, int64(len(resp.Body()))),
		attribute.Float64(telemetry.AttrHTTPDurationMS, float64(duration.Milliseconds())),
		attribute.String(telemetry.AttrNCMAPIVersion, s.version),
	)
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return resp, nil
}

// execute runs the request through the circuit breaker when one is
// configured. 5xx responses count as breaker failures but are still handed
// back to the caller as responses.
func (s *session) execute(r *resty.Request, method, target string) (*resty.Response, error) {
	if s.breaker == nil {
		return r.Execute(method, target)
	}
	resp, err := s.breaker.Execute(func() (*resty.Response, error) {
		resp, err := r.Execute(method, target)
		if err == nil && resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errBreakerServerFailure
		}
		return resp, err
	})
	if errors.Is(err, errBreakerServerFailure) {
		return resp, nil
	}
	return resp, err
}

// injectTraceContext adds W3C trace headers for the active span.
func injectTraceContext(ctx context.Context, headers map[string]string) map[string]string {
	carrier := propagation.MapCarrier(headers)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return headers
}

// close releases idle connections.
func (s *session) close() {
	s.client.GetClient().CloseIdleConnections()
}
