// Package fleet exposes the routers of an NCM account as Prometheus
// metrics. Listings are cached for a TTL and can be refreshed in the
// background so that a scrape rarely waits on the API.
package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/fjacquet/ncm_client/internal/telemetry"
	"github.com/fjacquet/ncm_client/internal/utils"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const collectionTimeout = 2 * time.Minute

// Scrape outcomes recorded on the scrape span.
const (
	scrapeStatusSuccess = "success"
	scrapeStatusCached  = "cached"
	scrapeStatusFailure = "failure"
)

// ClientFunc returns the client to list routers with. It is called on
// every refresh so a rebuilt client is picked up without re-registering.
type ClientFunc func() *ncm.Client

// CollectorOption configures optional Collector settings.
type CollectorOption func(*collectorOptions)

type collectorOptions struct {
	tracerProvider trace.TracerProvider
	cacheTTL       time.Duration
}

// WithCollectorTracerProvider sets the TracerProvider for scrape spans.
func WithCollectorTracerProvider(tp trace.TracerProvider) CollectorOption {
	return func(o *collectorOptions) {
		o.tracerProvider = tp
	}
}

// WithCacheTTL sets how long a router listing is served before refetching.
func WithCacheTTL(ttl time.Duration) CollectorOption {
	return func(o *collectorOptions) {
		o.cacheTTL = ttl
	}
}

// Collector implements prometheus.Collector over the v2 routers/ listing.
//
// It exposes:
//   - ncm_routers: router count per connection state
//   - ncm_router_info: one series per router, always 1
//   - ncm_api_up: 1 when the last listing succeeded
//   - ncm_scrape_duration_ms: time taken by the last listing
type Collector struct {
	client  ClientFunc
	cache   *SnapshotCache
	tracing *ncm.TracerWrapper

	scrapeMu     sync.RWMutex
	lastScrapeOK bool
	lastDuration time.Duration

	routers        *prometheus.Desc
	routerInfo     *prometheus.Desc
	apiUp          *prometheus.Desc
	scrapeDuration *prometheus.Desc
}

// NewCollector creates a collector. client must not return nil.
func NewCollector(client ClientFunc, opts ...CollectorOption) *Collector {
	var o collectorOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &Collector{
		client:  client,
		cache:   NewSnapshotCache(o.cacheTTL),
		tracing: ncm.NewTracerWrapper(o.tracerProvider, "ncm-client/fleet"),
		routers: prometheus.NewDesc(
			"ncm_routers",
			"The number of routers per connection state",
			[]string{"state"}, nil,
		),
		routerInfo: prometheus.NewDesc(
			"ncm_router_info",
			"Router identity and state",
			[]string{"id", "name", "state"}, nil,
		),
		apiUp: prometheus.NewDesc(
			"ncm_api_up",
			"Whether the last router listing succeeded",
			nil, nil,
		),
		scrapeDuration: prometheus.NewDesc(
			"ncm_scrape_duration_ms",
			"The duration of the last router listing in milliseconds",
			nil, nil,
		),
	}
}

// Cache returns the snapshot cache, mostly so callers can flush it.
func (c *Collector) Cache() *SnapshotCache {
	return c.cache
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.routers
	ch <- c.routerInfo
	ch <- c.apiUp
	ch <- c.scrapeDuration
}

// Collect implements prometheus.Collector. A cached listing is used while
// it is fresh. When listing fails only ncm_api_up and the duration are
// exposed.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectionTimeout)
	defer cancel()

	routers, err := c.snapshot(ctx)

	c.scrapeMu.RLock()
	up, duration := c.lastScrapeOK, c.lastDuration
	c.scrapeMu.RUnlock()

	if err == nil {
		c.exposeRouters(ch, routers)
	}
	ch <- prometheus.MustNewConstMetric(c.apiUp, prometheus.GaugeValue, boolToFloat(up))
	ch <- prometheus.MustNewConstMetric(c.scrapeDuration, prometheus.GaugeValue, float64(duration.Milliseconds()))
}

func (c *Collector) snapshot(ctx context.Context) ([]models.Router, error) {
	if routers, ok := c.cache.Get(); ok {
		_, span := c.tracing.StartSpan(ctx, "prometheus.scrape", trace.SpanKindServer)
		span.SetAttributes(
			attribute.String(telemetry.AttrScrapeStatus, scrapeStatusCached),
			attribute.Int(telemetry.AttrNCMRouterCount, len(routers)),
		)
		span.End()
		return routers, nil
	}
	return c.Refresh(ctx)
}

// Refresh lists every router, stores the result in the cache and records
// the outcome used by ncm_api_up and IsHealthy.
func (c *Collector) Refresh(ctx context.Context) ([]models.Router, error) {
	ctx, span := c.tracing.StartSpan(ctx, "prometheus.scrape", trace.SpanKindServer)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrNCMOperation, "get_routers"))

	start := time.Now()
	routers, err := c.listRouters(ctx)
	elapsed := time.Since(start)

	c.scrapeMu.Lock()
	c.lastScrapeOK = err == nil
	c.lastDuration = elapsed
	c.scrapeMu.Unlock()

	span.SetAttributes(attribute.Float64(telemetry.AttrScrapeDurationMS, float64(elapsed.Milliseconds())))
	if err != nil {
		log.Errorf("Failed to list routers: %v", err)
		span.AddEvent("routers_fetch_error", trace.WithAttributes(
			attribute.String(telemetry.AttrError, err.Error()),
		))
		span.SetAttributes(attribute.String(telemetry.AttrScrapeStatus, scrapeStatusFailure))
		span.SetStatus(codes.Error, "router listing failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrScrapeStatus, scrapeStatusSuccess),
		attribute.Int(telemetry.AttrNCMRouterCount, len(routers)),
	)
	span.SetStatus(codes.Ok, "")
	c.cache.Set(routers)
	log.Debugf("Listed %d routers in %v", len(routers), elapsed)
	return routers, nil
}

func (c *Collector) listRouters(ctx context.Context) ([]models.Router, error) {
	v2, err := c.client().V2()
	if err != nil {
		return nil, err
	}
	records, err := v2.GetRouters(ctx, ncm.Params{
		"fields": models.RouterFields,
		"limit":  "all",
	})
	if err != nil {
		return nil, err
	}
	return models.RoutersFromRecords(records), nil
}

// Run refreshes the listing every interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	for {
		if _, err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("Background fleet refresh failed: %v", err)
		}
		if err := utils.Pause(ctx, interval); err != nil {
			return
		}
	}
}

func (c *Collector) exposeRouters(ch chan<- prometheus.Metric, routers []models.Router) {
	for state, n := range models.CountByState(routers) {
		ch <- prometheus.MustNewConstMetric(c.routers, prometheus.GaugeValue, float64(n), state)
	}
	seen := make(map[string]bool, len(routers))
	for _, r := range routers {
		// duplicate label sets would fail the whole scrape
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		ch <- prometheus.MustNewConstMetric(c.routerInfo, prometheus.GaugeValue, 1, r.ID, r.Name, r.State)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
