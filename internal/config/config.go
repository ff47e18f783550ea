package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/law-makers/harvest/internal/engine/selectors"
	"github.com/law-makers/harvest/internal/proxy"
	"github.com/law-makers/harvest/internal/utils/headers"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// HTTP/Scraping
	PageTimeout time.Duration
	UserAgent   string
	Proxies     []string
	Headers     map[string]string
	BaseURL     string
	Concurrency int

	// Rendering
	Renderer        string
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string

	// Output
	OutputPath       string
	PostgresDSN      string
	PostgresMaxConns int
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string

	// Extraction
	Selectors selectors.Spec

	// ConfigFile is the file that was read, if any
	ConfigFile string
}

// flagKeys maps CLI flag names to configuration keys
var flagKeys = map[string]string{
	"proxy":       "proxy",
	"timeout":     "timeout",
	"user-agent":  "user-agent",
	"base-url":    "base-url",
	"renderer":    "renderer",
	"chrome-path": "chrome-path",
	"concurrency": "concurrency",
	"output":      "output",
	"pg-dsn":      "pg-dsn",
	"mongo-uri":   "mongo-uri",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	def := selectors.DefaultSpec()
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("json", DefaultJSONLog)
	v.SetDefault("timeout", DefaultPageTimeout.String())
	v.SetDefault("user-agent", DefaultUserAgent)
	v.SetDefault("base-url", DefaultBaseURL)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("output", DefaultOutputPath)
	v.SetDefault("renderer", DefaultRenderer)
	v.SetDefault("browser.pool-size", DefaultBrowserPoolSize)
	v.SetDefault("browser.headless", DefaultBrowserHeadless)
	v.SetDefault("pg-max-conns", DefaultPostgresMaxConns)
	v.SetDefault("mongo.database", DefaultMongoDatabase)
	v.SetDefault("mongo.collection", DefaultMongoCollection)
	v.SetDefault("selectors.container", def.Container)
	v.SetDefault("selectors.title", def.Title)
	v.SetDefault("selectors.price", def.Price)
	v.SetDefault("selectors.rating", def.Rating)
	v.SetDefault("selectors.review_count", def.ReviewCount)
	return v
}

// Load builds a Config by combining defaults, an optional config file,
// HARVEST_* environment variables and CLI flags, in increasing precedence.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	v := newViper()

	var flags *pflag.FlagSet
	if cmd != nil {
		flags = cmd.Flags()
	}

	if path := flagString(flags, "config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// Only flags set on the command line override file and environment.
	for name, key := range flagKeys {
		if f := lookup(flags, name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		LogLevel:         v.GetString("log-level"),
		JSONLog:          v.GetBool("json"),
		UserAgent:        v.GetString("user-agent"),
		BaseURL:          v.GetString("base-url"),
		Concurrency:      v.GetInt("concurrency"),
		Renderer:         strings.ToLower(v.GetString("renderer")),
		BrowserPoolSize:  v.GetInt("browser.pool-size"),
		BrowserHeadless:  v.GetBool("browser.headless"),
		ChromePath:       v.GetString("chrome-path"),
		OutputPath:       v.GetString("output"),
		PostgresDSN:      v.GetString("pg-dsn"),
		PostgresMaxConns: v.GetInt("pg-max-conns"),
		MongoURI:         v.GetString("mongo-uri"),
		MongoDatabase:    v.GetString("mongo.database"),
		MongoCollection:  v.GetString("mongo.collection"),
		ConfigFile:       v.ConfigFileUsed(),
		Selectors: selectors.Spec{
			Container:   v.GetString("selectors.container"),
			Title:       v.GetString("selectors.title"),
			Price:       v.GetString("selectors.price"),
			Rating:      v.GetString("selectors.rating"),
			ReviewCount: v.GetString("selectors.review_count"),
		},
	}

	timeout, err := parseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid config: timeout: %w", err)
	}
	cfg.PageTimeout = timeout

	rawProxies := v.GetString("proxy")
	if rawProxies == "" {
		rawProxies = strings.Join(v.GetStringSlice("proxies"), ",")
	}
	cfg.Proxies, err = proxy.ParseList(rawProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	hdrs, err := loadHeaders(v, flags)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Headers = hdrs

	if flagBool(flags, "json") {
		cfg.JSONLog = true
	}
	if flagBool(flags, "verbose") {
		cfg.LogLevel = "debug"
	}
	if flagBool(flags, "quiet") {
		cfg.Quiet = true
		cfg.LogLevel = "error"
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadHeaders merges the headers section of the config file with -H flags.
// Flags win on conflicts.
func loadHeaders(v *viper.Viper, flags *pflag.FlagSet) (map[string]string, error) {
	fileHeaders := v.GetStringMapString("headers")
	keys := make([]string, 0, len(fileHeaders))
	for k := range fileHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, k+": "+fileHeaders[k])
	}
	if f := lookup(flags, "header"); f != nil {
		values, err := flags.GetStringArray("header")
		if err != nil {
			return nil, err
		}
		entries = append(entries, values...)
	}

	return headers.ParseHeaders(entries)
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be > 0")
	}
	return d, nil
}

func lookup(flags *pflag.FlagSet, name string) *pflag.Flag {
	if flags == nil {
		return nil
	}
	return flags.Lookup(name)
}

func flagString(flags *pflag.FlagSet, name string) string {
	if f := lookup(flags, name); f != nil {
		return f.Value.String()
	}
	return ""
}

func flagBool(flags *pflag.FlagSet, name string) bool {
	return flagString(flags, name) == "true"
}
