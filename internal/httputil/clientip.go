package httputil

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers consulted for the originating address, in precedence order.
const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
)

// ClientIP resolves the address a request originated from. Behind the edge
// proxy the remote address is the proxy itself, so the forwarded headers win
// when present; the leftmost forwarded entry is the original client.
func ClientIP(r *http.Request) string {
	if ip := firstForwardedAddr(r.Header.Get(headerForwardedFor)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (or otherwise malformed) is logged as-is
		return r.RemoteAddr
	}
	return host
}

// firstForwardedAddr extracts the leftmost non-empty entry of a
// comma-separated forwarded chain.
func firstForwardedAddr(chain string) string {
	for _, entry := range strings.Split(chain, ",") {
		if ip := strings.TrimSpace(entry); ip != "" {
			return ip
		}
	}
	return ""
}
