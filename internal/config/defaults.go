package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel           = "info"
	DefaultJSONLog            = false
	DefaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultBaseURL            = "https://www.amazon.in/s"
	DefaultPageTimeout        = 30 * time.Second
	DefaultConcurrency        = 0 // auto-tune
	DefaultMaxConcurrency     = 50
	DefaultOutputPath         = "OutDir/output.csv"
	DefaultRenderer           = RendererStatic
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultPostgresMaxConns   = 2
	DefaultMongoDatabase      = "harvest"
	DefaultMongoCollection    = "listing_records"
	DefaultShutdownTimeout    = 5 * time.Second
)

// Renderers selectable with --renderer
const (
	RendererStatic = "static"
	RendererChrome = "chrome"
)

// EnvPrefix is prepended to every environment override, e.g. HARVEST_BASE_URL
const EnvPrefix = "HARVEST"
