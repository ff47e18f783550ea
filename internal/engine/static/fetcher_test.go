package static

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/law-makers/harvest/internal/engine"
	"github.com/law-makers/harvest/internal/proxy"
	"github.com/law-makers/harvest/pkg/models"
)

const pageHTML = `<!DOCTYPE html>
<html><body><div data-component-type="s-search-result">Item</div></body></html>`

func newTestFetcher(opts Options) *Fetcher {
	return New(&http.Client{Timeout: 5 * time.Second}, opts)
}

func TestFetcher_Fetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(pageHTML))
	}))
	defer server.Close()

	f := newTestFetcher(Options{Headers: map[string]string{"X-Custom-Header": "TestValue"}})
	body, err := f.Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != pageHTML {
		t.Errorf("Unexpected body: %q", body)
	}

	if ua := got.Get("User-Agent"); ua != DefaultUserAgent {
		t.Errorf("Expected browser user agent, got %q", ua)
	}
	if a := got.Get("Accept"); a != DefaultAccept {
		t.Errorf("Expected Accept %q, got %q", DefaultAccept, a)
	}
	if al := got.Get("Accept-Language"); al != DefaultAcceptLanguage {
		t.Errorf("Expected Accept-Language %q, got %q", DefaultAcceptLanguage, al)
	}
	if c := got.Get("X-Custom-Header"); c != "TestValue" {
		t.Errorf("Expected custom header, got %q", c)
	}
}

func TestFetcher_Fetch_Gzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(pageHTML))
		gz.Close()
	}))
	defer server.Close()

	body, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != pageHTML {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestFetcher_Fetch_Brotli(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		br.Write([]byte(pageHTML))
		br.Close()
	}))
	defer server.Close()

	body, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != pageHTML {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestFetcher_Fetch_Deflate(t *testing.T) {
	tests := []struct {
		name   string
		writer func(w http.ResponseWriter) io.WriteCloser
	}{
		{"zlib", func(w http.ResponseWriter) io.WriteCloser { return zlib.NewWriter(w) }},
		{"raw", func(w http.ResponseWriter) io.WriteCloser {
			fw, _ := flate.NewWriter(w, flate.DefaultCompression)
			return fw
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", "deflate")
				zw := tt.writer(w)
				zw.Write([]byte(pageHTML))
				zw.Close()
			}))
			defer server.Close()

			body, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if body != pageHTML {
				t.Errorf("Unexpected body: %q", body)
			}
		})
	}
}

func TestFetcher_Fetch_BodyLimit(t *testing.T) {
	big := "<html><body>" + strings.Repeat("x", 237) + "</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(big))
	}))
	defer server.Close()

	_, err := newTestFetcher(Options{MaxBodySize: 100}).Fetch(context.Background(), models.PageRequest{Page: 4, URL: server.URL})
	if engine.CodeOf(err) != engine.ErrCodeReadError {
		t.Fatalf("Expected READ_ERROR for oversized body, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds 100 bytes") {
		t.Errorf("Expected size in error, got %v", err)
	}

	body, err := newTestFetcher(Options{MaxBodySize: int64(len(big))}).Fetch(context.Background(), models.PageRequest{Page: 4, URL: server.URL})
	if err != nil {
		t.Fatalf("Body at the limit should pass, got %v", err)
	}
	if body != big {
		t.Errorf("Unexpected body length %d", len(body))
	}
}

func TestFetcher_Fetch_GzipBodyLimitAppliesToDecodedSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(strings.Repeat("a", 5000)))
		gz.Close()
	}))
	defer server.Close()

	_, err := newTestFetcher(Options{MaxBodySize: 1000}).Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
	if engine.CodeOf(err) != engine.ErrCodeReadError {
		t.Errorf("Expected READ_ERROR, got %v", err)
	}
}

func TestIsZlibHeader(t *testing.T) {
	if !isZlibHeader(0x78, 0x9c) || !isZlibHeader(0x78, 0x01) || !isZlibHeader(0x78, 0xda) {
		t.Error("Expected common zlib headers to be recognised")
	}
	if isZlibHeader('<', 'h') {
		t.Error("Plain markup is not a zlib header")
	}
}

func TestFetcher_Fetch_TranscodesCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in Latin-1
		w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	body, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 1, URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(body, "café") {
		t.Errorf("Expected UTF-8 transcoded body, got %q", body)
	}
}

func TestFetcher_Fetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 7, URL: server.URL})
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}

	var ee *engine.EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("Expected *engine.EngineError, got %T", err)
	}
	if ee.Code != engine.ErrCodeHTTPStatus || ee.Page != 7 {
		t.Errorf("Expected HTTP_STATUS for page 7, got %s/%d", ee.Code, ee.Page)
	}
	if ee.Details["status"] != http.StatusServiceUnavailable {
		t.Errorf("Expected status detail 503, got %v", ee.Details["status"])
	}
}

func TestFetcher_Fetch_NonTextBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer server.Close()

	_, err := newTestFetcher(Options{}).Fetch(context.Background(), models.PageRequest{Page: 2, URL: server.URL})
	if engine.CodeOf(err) != engine.ErrCodeUnsupportedType {
		t.Errorf("Expected UNSUPPORTED_TYPE, got %v", err)
	}
}

func TestFetcher_Fetch_DeadlineExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestFetcher(Options{}).Fetch(ctx, models.PageRequest{Page: 3, URL: server.URL})
	if engine.CodeOf(err) != engine.ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT, got %v", err)
	}
	if !errors.Is(err, engine.ErrTimeout) {
		t.Error("Expected ErrTimeout in chain")
	}
}

func TestFetcher_Fetch_InvalidURL(t *testing.T) {
	f := newTestFetcher(Options{})
	_, err := f.Fetch(context.Background(), models.PageRequest{Page: 1, URL: "http://invalid-url-that-does-not-exist-12345.invalid"})
	if err == nil {
		t.Error("Expected error for invalid URL, got nil")
	}
}

func TestFetcher_Fetch_MarksFailedProxy(t *testing.T) {
	pool := proxy.NewProxyPool([]string{"http://127.0.0.1:1"})
	client := &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{Proxy: proxy.TransportProxy},
	}
	f := New(client, Options{Proxies: pool})

	_, err := f.Fetch(context.Background(), models.PageRequest{Page: 1, URL: "http://example.com"})
	if engine.CodeOf(err) != engine.ErrCodeNetworkError && engine.CodeOf(err) != engine.ErrCodeTimeout {
		t.Fatalf("Expected transport error through dead proxy, got %v", err)
	}
}

func TestFetcher_Name(t *testing.T) {
	if newTestFetcher(Options{}).Name() != "StaticFetcher" {
		t.Error("Unexpected fetcher name")
	}
}

func TestIsMarkup(t *testing.T) {
	cases := map[string]bool{
		"":                         true,
		"text/html":                true,
		"text/html; charset=utf-8": true,
		"application/xhtml+xml":    true,
		"application/xml":          true,
		"application/json":         false,
		"image/webp":               false,
		";;;":                      false,
	}
	for ct, want := range cases {
		if got := isMarkup(ct); got != want {
			t.Errorf("isMarkup(%q) = %v, want %v", ct, got, want)
		}
	}
}
