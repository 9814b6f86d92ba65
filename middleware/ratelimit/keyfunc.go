package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultKeyPrefix    = "ratelimit"
	DefaultAPIKeyHeader = "X-API-Key"
	unknownClient       = "unknown"
)

// KeyFunc deriva a chave do bucket a partir do request.
// Quando fornecida nas Options, o valor retornado é usado como está.
type KeyFunc func(r *http.Request) string

// ClientIP resolve o IP do cliente: primeiro IP do X-Forwarded-For,
// senão o host do RemoteAddr, senão "unknown".
func ClientIP(r *http.Request) string {
	// pega o primeiro IP do X-Forwarded-For (cliente original)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// fallback: RemoteAddr
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return unknownClient
}

// ClientIdentity combina o IP com a API key (quando apiKeyHeader != "").
// Sem header configurado o limite é por IP; com header, por IP+key.
func ClientIdentity(r *http.Request, apiKeyHeader string) string {
	ip := ClientIP(r)
	if apiKeyHeader == "" {
		return ip
	}
	return ip + ":" + strings.TrimSpace(r.Header.Get(apiKeyHeader))
}

// DefaultKeyFunc gera "<prefix>:<xxhash64 hex>" da identidade do cliente.
// O hash não é fronteira de segurança, só evita chaves enormes/arbitrárias no store.
func DefaultKeyFunc(prefix, apiKeyHeader string) KeyFunc {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return func(r *http.Request) string {
		return BucketKey(prefix, ClientIdentity(r, apiKeyHeader))
	}
}

// BucketKey monta a chave a partir do prefixo e de uma identidade qualquer.
func BucketKey(prefix, identity string) string {
	sum := xxhash.Sum64String(identity)
	return prefix + ":" + leftPad16(strconv.FormatUint(sum, 16))
}

func leftPad16(s string) string {
	if len(s) >= 16 {
		return s
	}
	return strings.Repeat("0", 16-len(s)) + s
}
