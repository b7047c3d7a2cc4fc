package middleware

import (
	"net"
	"net/http"
)

// ClientIP is the address rate limits are keyed on: the host part of RemoteAddr.
// Forwarded headers are only honoured when the router mounts chi's RealIP
// (TRUST_PROXY), which rewrites RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
