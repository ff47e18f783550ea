// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/internal/engine/batch"
	"github.com/law-makers/harvest/internal/engine/dynamic"
	"github.com/law-makers/harvest/internal/engine/selectors"
	"github.com/law-makers/harvest/internal/engine/static"
	"github.com/law-makers/harvest/internal/proxy"
	"github.com/law-makers/harvest/internal/storage"
	"github.com/law-makers/harvest/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	Proxies    *proxy.ProxyPool
	Selectors  *selectors.Set
	Fetcher    engine.Fetcher

	sinkMu sync.Mutex
	Sink   storage.Sink

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Compiles the selector set, failing before any page is fetched
//   - Initializes the shared HTTP client with connection pooling
//   - Creates the fetcher for the configured renderer
//
// The browser and the database connections are opened on demand.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogging(cfg, os.Stderr)

	set, err := selectors.Compile(cfg.Selectors)
	if err != nil {
		return nil, err
	}
	logger.Debug().Msg("Selector set compiled")

	proxies := proxy.NewProxyPool(cfg.Proxies)

	httpClient := &http.Client{
		Timeout: cfg.PageTimeout,
		Transport: &http.Transport{
			Proxy: proxy.TransportProxy,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
	logger.Debug().
		Dur("timeout", cfg.PageTimeout).
		Int("proxies", proxies.Len()).
		Msg("HTTP client initialized")

	var fetcher engine.Fetcher
	switch cfg.Renderer {
	case config.RendererChrome:
		var browserProxy string
		if len(cfg.Proxies) > 0 {
			browserProxy = cfg.Proxies[0]
		}
		fetcher = dynamic.New(dynamic.Options{
			Pool: dynamic.BrowserPoolOptions{
				Size:       cfg.BrowserPoolSize,
				Headless:   cfg.BrowserHeadless,
				UserAgent:  cfg.UserAgent,
				Proxy:      browserProxy,
				ChromePath: cfg.ChromePath,
			},
			Headers: cfg.Headers,
		})
	default:
		fetcher = static.New(httpClient, static.Options{
			UserAgent: cfg.UserAgent,
			Headers:   cfg.Headers,
			Proxies:   proxies,
		})
	}
	logger.Debug().Str("fetcher", fetcher.Name()).Msg("Fetcher initialized")

	app := &Application{
		Config:     cfg,
		Logger:     &logger,
		HTTPClient: httpClient,
		Proxies:    proxies,
		Selectors:  set,
		Fetcher:    fetcher,
		startTime:  time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// setupLogging configures the global zerolog logger from cfg.
// Info logs are hidden unless verbose output is requested.
func setupLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	logLevel := zerolog.ErrorLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	logWriter := out
	if !cfg.JSONLog {
		logWriter = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	return logger
}

// Scraper returns a batch scraper over the application's fetcher. onPage,
// if non-nil, observes every page outcome as it arrives.
func (a *Application) Scraper(onPage func(models.PageOutcome)) *batch.Scraper {
	return batch.New(a.Fetcher, a.Selectors, batch.Options{
		Concurrency: a.Config.Concurrency,
		PageTimeout: a.Config.PageTimeout,
		BaseURL:     a.Config.BaseURL,
		OnPage:      onPage,
	})
}

// EnsureSinks lazily connects the configured database sinks. It returns
// nil, nil when neither a PostgreSQL DSN nor a MongoDB URI is configured.
func (a *Application) EnsureSinks(ctx context.Context) (storage.Sink, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}
	cfg := a.Config
	if cfg.PostgresDSN == "" && cfg.MongoURI == "" {
		return nil, nil
	}

	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()

	if a.Sink != nil {
		return a.Sink, nil
	}

	var sinks []storage.Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to connect to postgres")
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	if cfg.MongoURI != "" {
		mg, err := storage.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to connect to mongodb")
			closeAll()
			return nil, err
		}
		sinks = append(sinks, mg)
	}

	a.Sink = storage.NewMulti(sinks...)
	a.Logger.Info().Int("sinks", len(sinks)).Msg("Database sinks connected")
	return a.Sink, nil
}

// Close gracefully shuts down the application and all its resources.
//
// It closes the browser if one was started, the database sinks and idle
// HTTP connections. Errors are logged and do not stop later steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if closer, ok := a.Fetcher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing fetcher")
		}
	}

	a.sinkMu.Lock()
	if a.Sink != nil {
		if err := a.Sink.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing sinks")
		}
		a.Sink = nil
	}
	a.sinkMu.Unlock()

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Info().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
