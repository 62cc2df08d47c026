package di

import (
	"os"
	"strings"
)

// TrustedProxies reads TRUSTED_PROXIES as a comma-separated list of IPs or CIDRs.
// Unset means no proxy is trusted and the client IP is always the socket peer.
func TrustedProxies() []string {
	var out []string
	for _, p := range strings.Split(os.Getenv("TRUSTED_PROXIES"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
