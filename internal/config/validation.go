package config

import (
	"fmt"

	urlutil "github.com/law-makers/harvest/internal/utils/url"
)

func validate(c *Config) error {
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be > 0")
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if c.Concurrency < 0 || c.Concurrency > DefaultMaxConcurrency {
		return fmt.Errorf("concurrency must be between 0 and %d", DefaultMaxConcurrency)
	}
	switch c.Renderer {
	case RendererStatic, RendererChrome:
	default:
		return fmt.Errorf("unknown renderer %q: expected %s or %s", c.Renderer, RendererStatic, RendererChrome)
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.MongoURI != "" && (c.MongoDatabase == "" || c.MongoCollection == "") {
		return fmt.Errorf("mongo database and collection must be set when a mongo uri is given")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}
