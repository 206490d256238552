package main

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjacquet/ncm_client/internal/config"
	"github.com/fjacquet/ncm_client/internal/fleet"
	"github.com/fjacquet/ncm_client/internal/logging"
	"github.com/fjacquet/ncm_client/internal/models"
	"github.com/fjacquet/ncm_client/internal/telemetry"
	"github.com/fjacquet/ncm_client/pkg/ncm"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceVersion    = "1.0.0"
	shutdownTimeout   = 10 * time.Second // Maximum time to wait for graceful shutdown
	readHeaderTimeout = 5 * time.Second  // HTTP server read header timeout
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Export router fleet state in Prometheus format",
		Long: "serve lists the routers of the account on a schedule and exposes their state on the metrics endpoint. " +
			"Credential changes in the config file are applied without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile == "" {
				return fmt.Errorf("serve requires --config")
			}
			cfg, err := models.Load(opts.configFile)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg, opts.debug); err != nil {
				return err
			}
			if !cfg.HasCredentials() {
				return errNoCredentials
			}

			log.Infof("Starting %s...", programName)
			log.Infof("Scraping interval: %s, cache TTL: %s", cfg.Server.ScrapingInterval, cfg.Server.CacheTTL)
			if opts.debug {
				log.WithFields(toFields(cfg.MaskedCredentials())).Debug("Credentials loaded")
			}

			server, err := NewServer(cfg, opts.configFile)
			if err != nil {
				return err
			}
			if err := server.Start(); err != nil {
				return err
			}

			if err := waitForShutdown(server.ErrorChan()); err != nil {
				log.Errorf("Server error: %v", err)
			}
			return server.Shutdown()
		},
	}
}

// Server encapsulates the HTTP server and its dependencies for serving
// fleet metrics.
//
// Server errors (such as port binding failures) are delivered through
// ErrorChan rather than log.Fatal so the caller can still shut down
// gracefully.
type Server struct {
	imm              models.ImmutableConfig
	configPath       string
	safeCfg          *models.SafeConfig
	httpSrv          *http.Server
	registry         *prometheus.Registry
	telemetryManager *telemetry.Manager // nil if disabled
	reloader         *config.ClientReloader
	collector        *fleet.Collector
	watcher          *fsnotify.Watcher
	cancel           context.CancelFunc
	// serverErrChan is buffered so the listener goroutine never blocks
	// when Start returns before the caller selects on it.
	serverErrChan chan error
}

// NewServer creates a server for cfg. configPath is watched for credential
// changes once the server starts.
func NewServer(cfg *models.Config, configPath string) (*Server, error) {
	imm, err := models.NewImmutableConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var telemetryMgr *telemetry.Manager
	if imm.OTelEnabled() {
		telemetryMgr = telemetry.NewManager(telemetryConfig(imm, cfg))
	}

	return &Server{
		imm:              imm,
		configPath:       configPath,
		safeCfg:          models.NewSafeConfig(cfg),
		registry:         prometheus.NewRegistry(),
		telemetryManager: telemetryMgr,
		serverErrChan:    make(chan error, 1),
	}, nil
}

// Start initializes tracing, the client and the fleet collector, then
// serves the metrics endpoint and /health in a goroutine.
func (s *Server) Start() error {
	tracerProvider := s.initTelemetry()

	s.reloader = config.NewClientReloader(s.safeCfg, func(c *models.Config) *ncm.Client {
		return newClient(c, tracerProvider, ncm.WithMetricsRegisterer(s.registry))
	})

	s.collector = fleet.NewCollector(s.reloader.Client,
		fleet.WithCollectorTracerProvider(tracerProvider),
		fleet.WithCacheTTL(s.imm.CacheTTL()),
	)
	s.reloader.OnRebuild(func(*ncm.Client) {
		log.Info("NCM client rebuilt, flushing fleet cache")
		s.collector.Cache().Flush()
	})

	if err := s.registry.Register(s.collector); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.collector.Run(ctx, s.imm.ScrapingInterval())
	s.setupReload(ctx)

	s.httpSrv = &http.Server{
		Addr:              s.imm.ServerAddress(),
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Infof("Starting %s on %s%s", programName, s.imm.ServerAddress(), s.imm.MetricsURI())
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return nil
}

// initTelemetry returns the tracer provider to inject, or nil when tracing
// is disabled or failed to start.
func (s *Server) initTelemetry() trace.TracerProvider {
	if s.telemetryManager == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.telemetryManager.Initialize(ctx); err != nil {
		log.Warnf("Failed to initialize OpenTelemetry: %v. Continuing without tracing.", err)
	}
	if !s.telemetryManager.IsEnabled() {
		return nil
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("OpenTelemetry trace context propagation configured")
	return s.telemetryManager.TracerProvider()
}

// setupReload wires the file watcher and SIGHUP to the client reloader.
// A watcher failure leaves SIGHUP as the only trigger.
func (s *Server) setupReload(ctx context.Context) {
	if s.configPath == "" {
		return
	}
	watcher, err := config.WatchConfigFile(s.configPath, s.reloader.Reload)
	if err != nil {
		log.Warnf("File watcher setup failed: %v", err)
	} else {
		s.watcher = watcher
	}
	config.SetupSIGHUPHandler(ctx, s.configPath, s.reloader.Reload)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	if s.telemetryManager != nil && s.telemetryManager.IsEnabled() {
		metricsHandler = extractTraceContextMiddleware(metricsHandler)
	}
	mux.Handle(s.imm.MetricsURI(), metricsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// ErrorChan returns the channel for receiving server errors.
func (s *Server) ErrorChan() <-chan error {
	return s.serverErrChan
}

// Shutdown stops the server components in order:
//  1. HTTP server (no new scrapes accepted)
//  2. background refresh and config reload
//  3. OpenTelemetry (flush pending spans)
//  4. NCM client connections
//
// Telemetry is flushed before the client closes so spans of in-flight
// requests are exported.
func (s *Server) Shutdown() error {
	var errs []error

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("Shutting down HTTP server...")
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			log.Warnf("Config watcher close: %v", err)
		}
	}

	if s.telemetryManager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("Shutting down telemetry...")
		if err := s.telemetryManager.Shutdown(ctx); err != nil {
			log.Warnf("Telemetry shutdown warning: %v", err)
		}
	}

	if s.reloader != nil {
		log.Info("Closing NCM client connections...")
		s.reloader.Close()
	}

	close(s.serverErrChan)

	if len(errs) > 0 {
		log.Errorf("Shutdown completed with %d errors", len(errs))
		return errs[0]
	}

	log.Info("Server stopped gracefully")
	return nil
}

// extractTraceContextMiddleware extracts W3C trace context from incoming
// scrape requests so scrape spans join the caller's trace.
func extractTraceContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// healthHandler answers 200 once the last router listing succeeded and
// 503 otherwise. ?deep=1 also checks connectivity to NCM.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthy := s.collector != nil && s.collector.IsHealthy()
	if healthy && r.URL.Query().Get("deep") != "" {
		if err := s.collector.TestConnectivity(r.Context()); err != nil {
			log.Warnf("Deep health check failed: %v", err)
			healthy = false
		}
	}
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "UNHEALTHY\n")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK\n")
}

// setupLogging initializes JSON logging to stdout and the configured file.
func setupLogging(cfg *models.Config, debugMode bool) error {
	if err := logging.PrepareLogs(cfg.Server.LogName); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.SetDebug(debugMode)
	return nil
}

// waitForShutdown blocks until SIGINT or SIGTERM arrives or the server
// reports an error.
func waitForShutdown(serverErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Infof("Received signal %v, initiating graceful shutdown...", sig)
		return nil
	case err := <-serverErr:
		return err
	}
}

// telemetryConfig describes the NCM deployment for the trace resource.
func telemetryConfig(imm models.ImmutableConfig, cfg *models.Config) telemetry.Config {
	tc := telemetry.Config{
		Endpoint:       imm.OTelEndpoint(),
		Insecure:       imm.OTelInsecure(),
		SamplingRate:   imm.OTelSamplingRate(),
		ServiceVersion: serviceVersion,
		V2BaseURL:      cmp.Or(cfg.NCM.V2BaseURL, ncm.DefaultV2BaseURL),
		V3BaseURL:      cmp.Or(cfg.NCM.V3BaseURL, ncm.DefaultV3BaseURL),
	}
	if cfg.NCM.APIKeys.Any() {
		tc.APIVersions = append(tc.APIVersions, "v2")
	}
	if cfg.NCM.Token != "" {
		tc.APIVersions = append(tc.APIVersions, "v3")
	}
	return tc
}

func toFields(m map[string]string) log.Fields {
	fields := make(log.Fields, len(m))
	for k, v := range m {
		fields[k] = v
	}
	return fields
}
