package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestClientIP_UsesFirstForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", " 1.2.3.4 , 5.6.7.8")

	if got := ClientIP(r); got != "1.2.3.4" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestClientIP_FallbacksToRemoteAddrHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"

	if got := ClientIP(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestClientIP_UnknownWithoutAddress(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = ""

	if got := ClientIP(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestClientIdentity_CombinesAPIKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-API-Key", " secret ")

	if got := ClientIdentity(r, "X-API-Key"); got != "10.0.0.9:secret" {
		t.Fatalf("expected ip:key, got %q", got)
	}
	if got := ClientIdentity(r, ""); got != "10.0.0.9" {
		t.Fatalf("expected ip only without header, got %q", got)
	}
}

func TestDefaultKeyFunc_PrefixAndDigestFormat(t *testing.T) {
	for _, prefix := range []string{"test", "api", "custom"} {
		fn := DefaultKeyFunc(prefix, DefaultAPIKeyHeader)
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Forwarded-For", "192.168.1.1")

		key := fn(r)
		if !strings.HasPrefix(key, prefix+":") {
			t.Fatalf("expected prefix %q, got %q", prefix, key)
		}
		digest := strings.TrimPrefix(key, prefix+":")
		if len(digest) != 16 {
			t.Fatalf("expected 16 hex chars, got %q", digest)
		}
		if _, err := strconv.ParseUint(digest, 16, 64); err != nil {
			t.Fatalf("expected hex digest, got %q", digest)
		}
	}
}

func TestDefaultKeyFunc_DistinguishesClientsAndKeys(t *testing.T) {
	fn := DefaultKeyFunc("test", DefaultAPIKeyHeader)

	mk := func(ip, apiKey string) string {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = ip + ":1000"
		if apiKey != "" {
			r.Header.Set("X-API-Key", apiKey)
		}
		return fn(r)
	}

	if mk("10.0.0.1", "") != mk("10.0.0.1", "") {
		t.Fatalf("expected stable key for same client")
	}
	if mk("10.0.0.1", "") == mk("10.0.0.2", "") {
		t.Fatalf("expected different keys for different IPs")
	}
	if mk("10.0.0.1", "k1") == mk("10.0.0.1", "k2") {
		t.Fatalf("expected different keys for different API keys")
	}
}

func TestDefaultKeyFunc_EmptyPrefixUsesDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	if key := DefaultKeyFunc(" ", "")(r); !strings.HasPrefix(key, DefaultKeyPrefix+":") {
		t.Fatalf("expected default prefix, got %q", key)
	}
}
