// Package identity reacts to account lifecycle events coming from the
// authentication front end. The hook translates each event into audit
// records and, where the event invalidates credentials, session cleanup.
package identity

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta carries the client attribution captured with an event. Both
// fields are optional; events raised outside an HTTP request leave them nil.
type RequestMeta struct {
	IPAddress *string
	UserAgent *string
}

// MetaFromRequest extracts client attribution from a request. The client IP
// prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket
// peer address.
func MetaFromRequest(r *http.Request) RequestMeta {
	var meta RequestMeta
	if ip := clientIP(r); ip != "" {
		meta.IPAddress = &ip
	}
	if ua := r.UserAgent(); ua != "" {
		meta.UserAgent = &ua
	}
	return meta
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
