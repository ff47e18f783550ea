package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// FailureCooldown is how long a failed proxy is skipped before it is tried again
const FailureCooldown = 5 * time.Minute

type ctxKey struct{}

// ProxyPool manages a list of proxies with rotation and health checking
type ProxyPool struct {
	proxies []string
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
	now     func() time.Time
}

// NewProxyPool creates a new ProxyPool
func NewProxyPool(proxies []string) *ProxyPool {
	return &ProxyPool{
		proxies: proxies,
		failed:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// ParseList splits a comma separated proxy list and validates every entry
func ParseList(raw string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", p)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("invalid proxy scheme %q in %q", u.Scheme, p)
		}
		out = append(out, p)
	}
	return out, nil
}

// Len returns the number of configured proxies
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// GetNext returns the next healthy proxy from the pool
func (p *ProxyPool) GetNext() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	// Try to find a healthy proxy
	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		// Check if failed recently
		if failTime, ok := p.failed[proxy]; ok {
			if p.now().Sub(failTime) < FailureCooldown {
				// Still considered failed, try next
				if p.index == start {
					// Every proxy is cooling down, hand out the current one anyway
					return proxy
				}
				continue
			}
			// Failure expired
			delete(p.failed, proxy)
		}

		return proxy
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *ProxyPool) MarkFailed(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *ProxyPool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

// WithProxy pins a proxy for every request made with ctx
func WithProxy(ctx context.Context, proxy string) context.Context {
	return context.WithValue(ctx, ctxKey{}, proxy)
}

// FromContext returns the proxy pinned by WithProxy, if any
func FromContext(ctx context.Context) string {
	p, _ := ctx.Value(ctxKey{}).(string)
	return p
}

// TransportProxy is an http.Transport Proxy func that honors the proxy pinned
// on the request context and otherwise falls back to the environment.
func TransportProxy(req *http.Request) (*url.URL, error) {
	if p := FromContext(req.Context()); p != "" {
		return url.Parse(p)
	}
	return http.ProxyFromEnvironment(req)
}
