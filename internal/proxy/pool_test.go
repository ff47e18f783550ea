package proxy

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestProxyPool(t *testing.T) {
	proxies := []string{"p1", "p2", "p3"}
	pool := NewProxyPool(proxies)

	// Test rotation
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.GetNext(); p != "p2" {
		t.Errorf("Expected p2, got %s", p)
	}
	if p := pool.GetNext(); p != "p3" {
		t.Errorf("Expected p3, got %s", p)
	}
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}

	// Test failure
	pool.MarkFailed("p2")

	// Should skip p2
	if p := pool.GetNext(); p != "p3" {
		t.Errorf("Expected p3 (skipping p2), got %s", p)
	}
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}

	// Mark healthy
	pool.MarkHealthy("p2")
	if p := pool.GetNext(); p != "p2" {
		t.Errorf("Expected p2, got %s", p)
	}
}

func TestProxyPool_CooldownExpires(t *testing.T) {
	now := time.Now()
	pool := NewProxyPool([]string{"p1", "p2"})
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p1")
	if p := pool.GetNext(); p != "p2" {
		t.Errorf("Expected p2 while p1 cools down, got %s", p)
	}

	now = now.Add(FailureCooldown + time.Second)
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1 after cooldown, got %s", p)
	}
}

func TestProxyPool_AllFailed(t *testing.T) {
	pool := NewProxyPool([]string{"p1"})
	pool.MarkFailed("p1")
	if p := pool.GetNext(); p != "p1" {
		t.Errorf("Expected p1 when every proxy failed, got %s", p)
	}

	empty := NewProxyPool(nil)
	if p := empty.GetNext(); p != "" {
		t.Errorf("Expected empty proxy, got %s", p)
	}
}

func TestParseList(t *testing.T) {
	got, err := ParseList(" http://a:8080, ,socks5://b:1080 ")
	if err != nil {
		t.Fatalf("ParseList failed: %v", err)
	}
	if len(got) != 2 || got[0] != "http://a:8080" || got[1] != "socks5://b:1080" {
		t.Errorf("Unexpected proxies: %#v", got)
	}

	for _, bad := range []string{"ftp://a:21", "not a url", "http://"} {
		if _, err := ParseList(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestTransportProxy(t *testing.T) {
	req, _ := http.NewRequestWithContext(WithProxy(context.Background(), "http://proxy:3128"), "GET", "http://example.com", nil)
	u, err := TransportProxy(req)
	if err != nil {
		t.Fatalf("TransportProxy failed: %v", err)
	}
	if u == nil || u.Host != "proxy:3128" {
		t.Errorf("Expected pinned proxy, got %v", u)
	}
}
