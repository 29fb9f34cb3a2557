// Package metadata annotates the request context with the caller's device
// label and IP address so audit events can record where a check-in happened.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"github.com/youssefloay/comebac-sub002/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if label := deviceLabel(r.UserAgent()); label != "" {
			ctx = requestcontext.WithDevice(ctx, label)
		}
		if ip := clientIP(r); ip != "" {
			ctx = requestcontext.WithClientIP(ctx, ip)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceLabel condenses a User-Agent string into something a league admin
// can read in an audit trail, e.g. "Chrome on Android (mobile)".
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	if browser == "" {
		// Curl, kiosk firmware and the like; keep the raw product token.
		if fields := strings.Fields(rawUA); len(fields) > 0 {
			return fields[0]
		}
		return ""
	}
	label := browser
	if osName := ua.OS(); osName != "" {
		label += " on " + osName
	}
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
