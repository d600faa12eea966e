package handlers

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// SiteURL builds the scheme and host of absolute links
type SiteURL struct {
	// BaseURL wins over the request when set
	BaseURL string
	// TrustForwardedProto honours X-Forwarded-Proto from a terminating proxy
	TrustForwardedProto bool
	// AllowedHosts lists the Host values links may be built from. "*"
	// allows any host and ".example.com" allows the domain and its
	// subdomains.
	AllowedHosts []string
}

// Resolve returns e.g. "https://blog.example.com" for the request. Without a
// BaseURL the request Host must be allowed, or ErrDisallowedHost is returned.
func (s SiteURL) Resolve(c *gin.Context) (string, error) {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/"), nil
	}

	host := c.Request.Host
	if !s.hostAllowed(host) {
		return "", domain.ErrDisallowedHost
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if s.TrustForwardedProto {
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			proto = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
			if proto == "http" || proto == "https" {
				scheme = proto
			}
		}
	}
	return scheme + "://" + host, nil
}

func (s SiteURL) hostAllowed(host string) bool {
	name := strings.ToLower(host)
	if h, _, err := net.SplitHostPort(name); err == nil {
		name = h
	}
	name = strings.TrimSuffix(strings.Trim(name, "[]"), ".")
	if name == "" || strings.ContainsAny(name, "/@\\ ") {
		return false
	}

	for _, pattern := range s.AllowedHosts {
		pattern = strings.ToLower(strings.Trim(pattern, "[]"))
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if name == pattern[1:] || strings.HasSuffix(name, pattern) {
				return true
			}
		case name == pattern:
			return true
		}
	}
	return false
}
