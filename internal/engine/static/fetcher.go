// internal/engine/static/fetcher.go
package static

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/internal/proxy"
	"github.com/law-makers/harvest/pkg/models"
)

// Default request headers. The listing site serves degraded markup to clients
// that do not look like a browser.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.5"
	DefaultMaxBodySize    = 10 * 1024 * 1024 // 10MB
)

// Options configures a Fetcher
type Options struct {
	UserAgent   string
	Headers     map[string]string
	MaxBodySize int64
	Proxies     *proxy.ProxyPool
}

// Fetcher retrieves listing pages over plain HTTP.
// The client is injected and shared by every worker; it is never mutated here.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	proxies     *proxy.ProxyPool
}

// New creates a new Fetcher using the given shared client
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}

	return &Fetcher{
		client:      client,
		userAgent:   opts.UserAgent,
		headers:     opts.Headers,
		maxBodySize: opts.MaxBodySize,
		proxies:     opts.Proxies,
	}
}

// Name returns the name of this fetcher
func (f *Fetcher) Name() string {
	return "StaticFetcher"
}

// Fetch performs one GET for the page and returns its body as UTF-8 text
func (f *Fetcher) Fetch(ctx context.Context, pr models.PageRequest) (string, error) {
	start := time.Now()

	log.Debug().
		Int("page", pr.Page).
		Str("url", pr.URL).
		Str("fetcher", f.Name()).
		Msg("Starting fetch")

	var proxyURL string
	if f.proxies.Len() > 0 {
		proxyURL = f.proxies.GetNext()
		ctx = proxy.WithProxy(ctx, proxyURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pr.URL, nil)
	if err != nil {
		return "", engine.NewPageError(pr.Page, engine.ErrCodeNetworkError, "failed to create request", err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		if proxyURL != "" {
			f.proxies.MarkFailed(proxyURL)
		}
		return "", engine.TransportError(ctx, pr.Page, err).WithDetail("url", pr.URL)
	}
	defer resp.Body.Close()

	if proxyURL != "" {
		f.proxies.MarkHealthy(proxyURL)
	}

	log.Debug().
		Int("page", pr.Page).
		Int("status", resp.StatusCode).
		Msg("Response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return "", engine.NewPageError(pr.Page, engine.ErrCodeHTTPStatus,
			fmt.Sprintf("status %d", resp.StatusCode), engine.ErrBadStatus).
			WithDetail("status", resp.StatusCode).
			WithDetail("url", pr.URL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isMarkup(contentType) {
		return "", engine.NewPageError(pr.Page, engine.ErrCodeUnsupportedType,
			fmt.Sprintf("content type %q", contentType), engine.ErrUnsupportedType)
	}

	body, err := f.readBody(resp, contentType)
	if err != nil {
		if ctx.Err() != nil {
			return "", engine.TransportError(ctx, pr.Page, err)
		}
		return "", engine.NewPageError(pr.Page, engine.ErrCodeReadError, "failed to read body", fmt.Errorf("%w: %v", engine.ErrReadError, err))
	}

	log.Debug().
		Int("page", pr.Page).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Fetch completed")

	return body, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", DefaultAccept)
	req.Header.Set("Accept-Language", DefaultAcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	// Add custom headers
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}
}

// readBody decompresses and transcodes the response body to UTF-8. A decoded
// body larger than maxBodySize is an error, never a silent truncation.
func (f *Fetcher) readBody(resp *http.Response, contentType string) (string, error) {
	decoded, err := decompressReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return "", err
	}
	defer decoded.Close()

	limited := &io.LimitedReader{R: decoded, N: f.maxBodySize + 1}
	utf8Reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	if limited.N <= 0 {
		return "", fmt.Errorf("body exceeds %d bytes", f.maxBodySize)
	}
	return string(data), nil
}

// decompressReader wraps a reader with the appropriate decompressor
func decompressReader(encoding string, reader io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return deflateReader(reader)
	case "br":
		return io.NopCloser(brotli.NewReader(reader)), nil
	case "", "identity":
		return io.NopCloser(reader), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// deflateReader decodes HTTP deflate, which is zlib-wrapped. Some servers send
// a bare deflate stream instead, so the zlib header is checked first.
func deflateReader(reader io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(reader)
	header, err := br.Peek(2)
	if err != nil && len(header) < 2 {
		return io.NopCloser(br), nil
	}
	if isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks the CMF/FLG pair from RFC 1950
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// isMarkup reports whether a Content-Type can carry an HTML document.
// A missing header is accepted and left to the parser.
func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		strings.HasSuffix(mediaType, "+xml") ||
		mediaType == "application/xml"
}
