package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/harvest/internal/engine/selectors"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "scrape"}
	RegisterFlags(cmd)
	RegisterScrapeFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultPageTimeout, cfg.PageTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)
	assert.Equal(t, RendererStatic, cfg.Renderer)
	assert.Equal(t, DefaultBrowserPoolSize, cfg.BrowserPoolSize)
	assert.Equal(t, selectors.DefaultSpec(), cfg.Selectors)
	assert.Empty(t, cfg.Proxies)
	assert.Empty(t, cfg.Headers)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_NilCommand(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoad_Flags(t *testing.T) {
	cmd := newCommand(t,
		"--timeout", "5s",
		"--base-url", "http://localhost:9999/s",
		"-c", "4",
		"-o", "out/records.json",
		"-H", "Cookie: session=1",
		"-H", "x-trace: abc",
		"--proxy", "http://p1:8080, socks5://p2:1080",
		"-v",
	)

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PageTimeout)
	assert.Equal(t, "http://localhost:9999/s", cfg.BaseURL)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "out/records.json", cfg.OutputPath)
	assert.Equal(t, map[string]string{"Cookie": "session=1", "X-Trace": "abc"}, cfg.Headers)
	assert.Equal(t, []string{"http://p1:8080", "socks5://p2:1080"}, cfg.Proxies)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HARVEST_BASE_URL", "https://env.example/s")
	t.Setenv("HARVEST_CONCURRENCY", "7")
	t.Setenv("HARVEST_SELECTORS_TITLE", "h3.name")

	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/s", cfg.BaseURL)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, "h3.name", cfg.Selectors.Title)
	assert.Equal(t, selectors.DefaultContainer, cfg.Selectors.Container)
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("HARVEST_CONCURRENCY", "7")

	cfg, err := Load(newCommand(t, "--concurrency", "2"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	content := `
base-url: https://file.example/search
renderer: chrome
timeout: 12s
browser:
  pool-size: 2
  headless: false
headers:
  Accept-Language: de-DE
selectors:
  container: li.result
  price: .cost
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(newCommand(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "https://file.example/search", cfg.BaseURL)
	assert.Equal(t, RendererChrome, cfg.Renderer)
	assert.Equal(t, 12*time.Second, cfg.PageTimeout)
	assert.Equal(t, 2, cfg.BrowserPoolSize)
	assert.False(t, cfg.BrowserHeadless)
	assert.Equal(t, "de-DE", cfg.Headers["Accept-Language"])
	assert.Equal(t, "li.result", cfg.Selectors.Container)
	assert.Equal(t, ".cost", cfg.Selectors.Price)
	assert.Equal(t, selectors.DefaultTitle, cfg.Selectors.Title)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero timeout", []string{"--timeout", "0s"}},
		{"bad timeout", []string{"--timeout", "soon"}},
		{"bad base url", []string{"--base-url", "ftp://example.com"}},
		{"bad renderer", []string{"--renderer", "lynx"}},
		{"negative concurrency", []string{"-c", "-1"}},
		{"huge concurrency", []string{"-c", "1000"}},
		{"bad header", []string{"-H", "nocolon"}},
		{"bad proxy", []string{"--proxy", "ftp://proxy:21"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newCommand(t, tt.args...))
			assert.Error(t, err)
		})
	}
}
